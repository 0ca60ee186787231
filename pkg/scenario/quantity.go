package scenario

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"k8s.io/apimachinery/pkg/api/resource"
)

var bareNumber = regexp.MustCompile(`^[0-9]+$`)

// CPU is an amount of cores: 2, 1.5 or 500m
type CPU string

// Cores returns the amount in cores. An empty value is zero.
func (c CPU) Cores() (float64, error) {
	if c == "" {
		return 0, nil
	}
	q, err := resource.ParseQuantity(string(c))
	if err != nil {
		return 0, fmt.Errorf("invalid cpu %q: %w", string(c), err)
	}
	return float64(q.MilliValue()) / 1000, nil
}

// Memory is an amount of memory. A bare integer is in MB; a quantity with a
// unit (512Mi, 2Gi, 1G) is converted to MB, rounding up.
type Memory string

// MB returns the amount in megabytes. An empty value is zero.
func (m Memory) MB() (int64, error) {
	if m == "" {
		return 0, nil
	}
	if bareNumber.MatchString(string(m)) {
		return strconv.ParseInt(string(m), 10, 64)
	}
	q, err := resource.ParseQuantity(string(m))
	if err != nil {
		return 0, fmt.Errorf("invalid memory %q: %w", string(m), err)
	}
	return int64(math.Ceil(float64(q.Value()) / (1 << 20))), nil
}

// request resolves a cpu/memory pair, requiring both to be positive
func request(cpu CPU, memory Memory) (float64, int64, error) {
	cores, err := cpu.Cores()
	if err != nil {
		return 0, 0, err
	}
	mb, err := memory.MB()
	if err != nil {
		return 0, 0, err
	}
	if cores <= 0 || mb <= 0 {
		return 0, 0, fmt.Errorf("cpu and memory must be positive (cpu=%q, memory=%q)", string(cpu), string(memory))
	}
	return cores, mb, nil
}
