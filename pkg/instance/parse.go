package instance

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadOptions configures instance construction from a parsed file (spec.md §6).
type LoadOptions struct {
	Discretizations int
	TurnRadius      float64
	Geo             Dubins
}

// targetLine is one parsed "x y score" instance-file row (spec.md §6).
type targetLine struct {
	x, y, score float64
}

// Load reads a TOP-Dubins instance file and builds its discretized
// vertex/target graph. The file format (spec.md §6) is whitespace-delimited
// text: a numTargets header line, a numVehicles header line, a budget
// header line, then one "x y score" line per target (first = source,
// last = destination).
func Load(path string, opts LoadOptions) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("instance: open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, opts)
}

func parse(f *os.File, opts LoadOptions) (*Instance, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	numTargets, err := readTrailingInt(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: header 1 (numTargets): %v", ErrMalformed, err)
	}
	numVehicles, err := readTrailingInt(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: header 2 (numVehicles): %v", ErrMalformed, err)
	}
	budget, err := readTrailingFloat(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: header 3 (budget): %v", ErrMalformed, err)
	}

	lines := make([]targetLine, 0, numTargets)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: target line %q has fewer than 3 fields", ErrMalformed, line)
		}
		x, err1 := strconv.ParseFloat(fields[0], 64)
		y, err2 := strconv.ParseFloat(fields[1], 64)
		score, err3 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("%w: target line %q is not three reals", ErrMalformed, line)
		}
		lines = append(lines, targetLine{x, y, score})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(lines) != numTargets {
		return nil, fmt.Errorf("%w: header says %d targets, found %d", ErrInconsistentHeader, numTargets, len(lines))
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: need at least a source and a destination target", ErrMalformed)
	}

	d := opts.Discretizations
	if d <= 0 {
		d = 1
	}
	geo := opts.Geo
	if geo == nil {
		geo = DefaultDubins{}
	}

	return build(lines, numVehicles, budget, d, opts.TurnRadius, geo)
}

func build(lines []targetLine, numVehicles int, budget float64, d int, turnRadius float64, geo Dubins) (*Instance, error) {
	numTargets := len(lines)
	sourceTarget, destTarget := 0, numTargets-1

	verticesInTarget := make([][]int, numTargets)
	// clusterInTarget holds the heading-discretized "real" vertices of
	// each target, excluding the pseudo source/sink vertices. These are
	// the only vertices that carry Dubins edges; the pseudo vertex of
	// the source and destination target reaches its own cluster over
	// zero-weight connectors (spec.md §3, §6).
	clusterInTarget := make([][]int, numTargets)
	var poses []Pose
	targetOfVertex := []int{}
	targetScores := make([]float64, numTargets)

	addVertex := func(t int, p Pose) int {
		vid := len(poses)
		poses = append(poses, p)
		targetOfVertex = append(targetOfVertex, t)
		verticesInTarget[t] = append(verticesInTarget[t], vid)
		return vid
	}

	for t, ln := range lines {
		if t != sourceTarget && t != destTarget {
			targetScores[t] = ln.score
		}
		if t == sourceTarget || t == destTarget {
			// The pseudo vertex comes first in the target's vertex list.
			addVertex(t, Pose{X: ln.x, Y: ln.y, Theta: 0})
		}
		for k := 0; k < d; k++ {
			theta := 2 * math.Pi * float64(k) / float64(d)
			vid := addVertex(t, Pose{X: ln.x, Y: ln.y, Theta: theta})
			clusterInTarget[t] = append(clusterInTarget[t], vid)
		}
	}

	for t, vs := range verticesInTarget {
		if len(vs) == 0 {
			return nil, fmt.Errorf("%w: target %d", ErrNoVertex, t)
		}
	}

	numVertices := len(poses)
	g := NewGraph(numVertices)

	// Dubins edges between real vertex clusters: out of every target
	// except the destination, into every target except the source.
	for t1 := 0; t1 < numTargets; t1++ {
		if t1 == destTarget {
			continue
		}
		for t2 := 0; t2 < numTargets; t2++ {
			if t2 == t1 || t2 == sourceTarget {
				continue
			}
			connectAll(g, poses, clusterInTarget[t1], clusterInTarget[t2], turnRadius, d, geo, budget)
		}
	}
	// Zero-weight pseudo connectors: pseudo source -> its own cluster,
	// destination cluster -> pseudo sink.
	pseudoSrc := verticesInTarget[sourceTarget][0]
	pseudoDst := verticesInTarget[destTarget][0]
	connectZero(g, []int{pseudoSrc}, clusterInTarget[sourceTarget])
	connectZero(g, clusterInTarget[destTarget], []int{pseudoDst})

	inst := &Instance{
		Budget:           budget,
		NumVehicles:      numVehicles,
		NumTargets:       numTargets,
		NumVertices:      numVertices,
		SourceTarget:     sourceTarget,
		DestTarget:       destTarget,
		TargetOfVertex:   targetOfVertex,
		VerticesInTarget: verticesInTarget,
		TargetScores:     targetScores,
		Graph:            g,
	}
	PreprocessRoundTrip(inst)
	return inst, nil
}

func connectAll(g *Graph, poses []Pose, from, to []int, turnRadius float64, d int, geo Dubins, budget float64) {
	for _, u := range from {
		for _, v := range to {
			length := EdgeLength(geo, poses[u], poses[v], turnRadius, d)
			if length > budget {
				continue // no edge may exceed budget (spec.md §3)
			}
			g.AddEdge(u, v, length)
		}
	}
}

func connectZero(g *Graph, from, to []int) {
	for _, u := range from {
		for _, v := range to {
			g.AddEdge(u, v, 0)
		}
	}
}

func readTrailingInt(sc *bufio.Scanner) (int, error) {
	line, err := nextLine(sc)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty header line")
	}
	return strconv.Atoi(fields[len(fields)-1])
}

func readTrailingFloat(sc *bufio.Scanner) (float64, error) {
	line, err := nextLine(sc)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty header line")
	}
	return strconv.ParseFloat(fields[len(fields)-1], 64)
}

func nextLine(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("unexpected end of file")
	}
	return sc.Text(), nil
}
