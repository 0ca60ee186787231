package cluster

import "errors"

var (
	// ErrQueueFull is returned when a pod is created while the queue is at capacity
	ErrQueueFull = errors.New("queue full")

	// ErrNodeLimitReached is returned when adding a node beyond the ceiling
	ErrNodeLimitReached = errors.New("node limit reached")

	// ErrPodNotFound is returned when an operation references an unknown pod
	ErrPodNotFound = errors.New("pod not found")

	// ErrNodeNotFound is returned when an operation references an unknown node
	ErrNodeNotFound = errors.New("node not found")

	// ErrInsufficientResources is returned when a target node cannot fit a pod
	ErrInsufficientResources = errors.New("insufficient resources")

	// ErrNoEligibleNode reports that no node can currently fit a pod.
	// It is never returned as an error; see Placement.Err.
	ErrNoEligibleNode = errors.New("no suitable node")

	// ErrInvalidRequest is returned for non-positive resource amounts
	ErrInvalidRequest = errors.New("invalid request")
)
