package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines     []string
	capacity  int
	head      int // Next write position
	size      int // Lines currently held
	totalSeen int // Lines added since the last rotation
}

// NewRingBuffer creates a ring buffer holding up to capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	capacity = max(capacity, 1)
	return &RingBuffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

func (rb *RingBuffer) add(line string) {
	rb.lines[rb.head] = line
	rb.head = (rb.head + 1) % rb.capacity
	rb.size = min(rb.size+1, rb.capacity)
	rb.totalSeen++
}

// snapshot returns the held lines oldest first.
func (rb *RingBuffer) snapshot() []string {
	if rb.size == 0 {
		return nil
	}

	result := make([]string, rb.size)
	start := (rb.head - rb.size + rb.capacity) % rb.capacity
	for i := range rb.size {
		result[i] = rb.lines[(start+i)%rb.capacity]
	}
	return result
}
