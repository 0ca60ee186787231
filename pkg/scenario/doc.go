/*
Package scenario loads scripted simulations from YAML and runs them against
an orchestrator.

A scenario file follows the apiVersion/kind/metadata/spec resource shape:

	apiVersion: podsim/v1
	kind: Scenario
	metadata:
	  name: web-stack
	spec:
	  policy: binpack          # spread | binpack | random
	  maxNodes: 6
	  queueCapacity: 10
	  seed: 42                 # makes the random policy reproducible
	  bootstrap: true          # start from Worker-1, Worker-2, GPU-Node
	  nodes:
	    - {name: Edge-1, cpu: 2, memory: 4096}
	  steps:
	    - {action: submit, pod: web, cpu: 1.5, memory: 1024, expect: scheduled}
	    - {action: create, pod: batch, cpu: 6, memory: 2048}
	    - {action: schedule, pod: batch, expect: pending}
	    - {action: move, pod: web, node: GPU-Node}
	    - {action: drain}
	    - {action: policy, policy: spread}
	    - {action: reset}

Actions: create, submit, schedule, drain, move, add-node, add-random-node,
quick-pod, policy, reset, examples.

Pods are referenced by the name they were created with and nodes by name or
id. A step the cluster refuses (full queue, node limit, insufficient room) is
recorded as a rejected outcome and the run continues. The optional expect
field (ok, scheduled, pending, rejected) turns a scenario into a check:
Report.Passed is false when any step ended differently.
*/
package scenario
