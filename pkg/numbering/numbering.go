package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

const AssignmentPrefix = "ASG"

// TicketNumber is the human-readable ticket identifier, formatted as
// {TYPE}-{year}-{seq:3}, e.g. IT-2025-007.
type TicketNumber struct {
	ticketType string
	year       int
	sequence   int
}

func NewTicketNumber(ticketType string, year, sequence int) TicketNumber {
	return TicketNumber{ticketType: ticketType, year: year, sequence: sequence}
}

func (n TicketNumber) String() string {
	return fmt.Sprintf("%s-%d-%03d", n.ticketType, n.year, n.sequence)
}

// AssignmentNumber is formatted as ASG-{year}-{seq:4}.
type AssignmentNumber struct {
	year     int
	sequence int
}

func NewAssignmentNumber(year, sequence int) AssignmentNumber {
	return AssignmentNumber{year: year, sequence: sequence}
}

func (n AssignmentNumber) String() string {
	return fmt.Sprintf("%s-%d-%04d", AssignmentPrefix, n.year, n.sequence)
}

// Sequence extracts the trailing sequence from a formatted number. Anything
// unparseable counts as zero, so allocation falls open to sequence 1.
func Sequence(number string) int {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}
