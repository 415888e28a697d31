package network

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"maxflow/pkg/apperror"
	"maxflow/pkg/tolerance"
)

const (
	// MaxDIMACSNodes bounds the node count a problem line may declare.
	MaxDIMACSNodes = 1 << 24
	// arcHint caps the preallocation taken from the declared arc count.
	arcHint = 1 << 16
)

// Problem is a max-flow instance read from a DIMACS file.
type Problem struct {
	Graph    *Digraph
	Capacity ArcMap[float64]
	Source   int
	Target   int
}

// ReadDIMACS parses the DIMACS max-flow format:
//
//	c comment
//	p max NODES ARCS
//	n ID s
//	n ID t
//	a FROM TO CAPACITY
//
// Node ids in the file are 1-based; the returned graph uses 0-based ids.
func ReadDIMACS(r io.Reader) (*Problem, error) {
	var (
		b        *Builder
		caps     []float64
		arcs     int
		source   = -1
		target   = -1
		lineNo   int
		declared bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "c" {
			continue
		}

		switch fields[0] {
		case "p":
			if declared {
				return nil, dimacsError(lineNo, "duplicate problem line")
			}
			if len(fields) != 4 || fields[1] != "max" {
				return nil, dimacsError(lineNo, "expected 'p max NODES ARCS'")
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, dimacsError(lineNo, "invalid node count")
			}
			if n > MaxDIMACSNodes {
				return nil, dimacsError(lineNo, fmt.Sprintf("node count %d exceeds %d", n, MaxDIMACSNodes))
			}
			m, err := strconv.Atoi(fields[3])
			if err != nil || m < 0 {
				return nil, dimacsError(lineNo, "invalid arc count")
			}
			b = NewBuilder(n)
			arcs = m
			caps = make([]float64, 0, min(m, arcHint))
			declared = true

		case "n":
			if !declared {
				return nil, dimacsError(lineNo, "node line before problem line")
			}
			if len(fields) != 3 {
				return nil, dimacsError(lineNo, "expected 'n ID s|t'")
			}
			id, err := parseNode(fields[1], b.NodeCount())
			if err != nil {
				return nil, dimacsError(lineNo, err.Error())
			}
			switch fields[2] {
			case "s":
				source = id
			case "t":
				target = id
			default:
				return nil, dimacsError(lineNo, fmt.Sprintf("unknown node designator %q", fields[2]))
			}

		case "a":
			if !declared {
				return nil, dimacsError(lineNo, "arc line before problem line")
			}
			if len(fields) != 4 {
				return nil, dimacsError(lineNo, "expected 'a FROM TO CAPACITY'")
			}
			u, err := parseNode(fields[1], b.NodeCount())
			if err != nil {
				return nil, dimacsError(lineNo, err.Error())
			}
			v, err := parseNode(fields[2], b.NodeCount())
			if err != nil {
				return nil, dimacsError(lineNo, err.Error())
			}
			c, err := strconv.ParseFloat(fields[3], 64)
			if err != nil || !tolerance.IsFinite(c) || c < 0 {
				return nil, dimacsError(lineNo, "capacity must be a finite non-negative number")
			}
			b.MustAddArc(u, v)
			caps = append(caps, c)

		default:
			return nil, dimacsError(lineNo, fmt.Sprintf("unknown line type %q", fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "failed to read DIMACS input")
	}

	if !declared {
		return nil, apperror.New(apperror.CodeInvalidArgument, "missing problem line")
	}
	if len(caps) != arcs {
		return nil, apperror.New(apperror.CodeInvalidArgument,
			fmt.Sprintf("problem line declares %d arcs, found %d", arcs, len(caps)))
	}
	if source < 0 {
		return nil, apperror.ErrInvalidSource
	}
	if target < 0 {
		return nil, apperror.ErrInvalidSink
	}

	return &Problem{
		Graph:    b.Build(),
		Capacity: ArcMap[float64](caps),
		Source:   source,
		Target:   target,
	}, nil
}

// WriteDIMACSFlow writes a solution in DIMACS format: the flow value line
// followed by one line per arc carrying flow.
func WriteDIMACSFlow[V int64 | float64](w io.Writer, g Graph, flow ArcReader[V], value V) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "s %v\n", value)
	for a := 0; a < g.ArcCount(); a++ {
		if f := flow.Get(a); f != 0 {
			fmt.Fprintf(bw, "f %d %d %v\n", g.Tail(a)+1, g.Head(a)+1, f)
		}
	}
	return bw.Flush()
}

func parseNode(field string, n int) (int, error) {
	id, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", field)
	}
	if id < 1 || id > n {
		return 0, fmt.Errorf("node id %d out of range [1, %d]", id, n)
	}
	return id - 1, nil
}

func dimacsError(line int, msg string) error {
	return apperror.New(apperror.CodeInvalidArgument, fmt.Sprintf("line %d: %s", line, msg)).
		WithDetails("line", line)
}
