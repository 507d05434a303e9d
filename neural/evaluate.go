package neural

// Evaluation is the result of one group evaluation. Values is nil when the
// group had no live inbound wiring; callers must then use their legacy
// deterministic decision path.
type Evaluation struct {
	Group           string
	Values          map[uint8]float64
	ActivationCount int
	Trace           *Trace
}

// Trace is an introspection snapshot of one evaluation. It is always a deep
// copy: mutating a returned trace never affects the brain's retained state.
type Trace struct {
	Sensors []float64 // effective (gain-modulated) sensor values
	Nodes   map[uint8]float64
}

func (t *Trace) clone() *Trace {
	if t == nil {
		return nil
	}
	out := &Trace{
		Sensors: make([]float64, len(t.Sensors)),
		Nodes:   make(map[uint8]float64, len(t.Nodes)),
	}
	copy(out.Sensors, t.Sensors)
	for k, v := range t.Nodes {
		out.Nodes[k] = v
	}
	return out
}

func (e *Evaluation) clone() *Evaluation {
	if e == nil {
		return nil
	}
	out := &Evaluation{
		Group:           e.Group,
		ActivationCount: e.ActivationCount,
		Trace:           e.Trace.clone(),
	}
	if e.Values != nil {
		out.Values = make(map[uint8]float64, len(e.Values))
		for k, v := range e.Values {
			out.Values[k] = v
		}
	}
	return out
}

// EvaluateGroup propagates the sensor vector through the pruned graph and
// returns one value per output node in the requested group. Unknown group
// names and short sensor vectors are programming errors.
func (b *Brain) EvaluateGroup(group string, sensors []float64, withTrace bool) *Evaluation {
	outputs := outputGroups[group]
	if outputs == nil {
		panic("neural: unknown output group " + group)
	}
	if len(sensors) < NumSensors {
		panic("neural: sensor vector shorter than NumSensors")
	}

	// Per-sensor modulation: effective = raw * adapted gain.
	effective := make([]float64, NumSensors)
	for i := 0; i < NumSensors; i++ {
		effective[i] = sensors[i] * b.gains[i]
	}

	// A group with no inbound wiring is silent: zero activations, nil map.
	wired := false
	for _, id := range outputs {
		if len(b.incoming[id]) > 0 {
			wired = true
			break
		}
	}
	if !wired {
		eval := &Evaluation{Group: group, ActivationCount: 0, Values: nil}
		b.lastEval = eval.clone()
		return eval
	}

	ev := &evaluator{
		brain:     b,
		effective: effective,
		memo:      make(map[uint8]float64),
		inFlight:  make(map[uint8]bool),
	}

	values := make(map[uint8]float64, len(outputs))
	for _, id := range outputs {
		values[id] = ev.value(id)
	}

	eval := &Evaluation{
		Group:           group,
		Values:          values,
		ActivationCount: len(ev.memo),
	}
	if withTrace {
		eval.Trace = &Trace{Sensors: effective, Nodes: ev.memo}
	}

	// Retain a private copy so callers may mutate what they were handed.
	b.lastEval = eval.clone()
	return eval.clone()
}

// LastEvaluation returns a copy of the most recent evaluation, or nil before
// the first one.
func (b *Brain) LastEvaluation() *Evaluation {
	return b.lastEval.clone()
}

// evaluator performs memoized backward evaluation with a cycle guard.
type evaluator struct {
	brain     *Brain
	effective []float64
	memo      map[uint8]float64
	inFlight  map[uint8]bool
}

// value computes one neuron's output. Recurrent edges contribute zero on the
// first pass: the cycle guard breaks the loop deterministically.
func (ev *evaluator) value(id uint8) float64 {
	if isSensor(id) {
		return ev.effective[id]
	}
	if v, ok := ev.memo[id]; ok {
		return v
	}
	if ev.inFlight[id] {
		return 0
	}
	ev.inFlight[id] = true

	var sum float64
	for _, e := range ev.brain.incoming[id] {
		sum += ev.value(e.source) * e.weight
	}
	v := activate(ev.brain.activation[id], sum)

	delete(ev.inFlight, id)
	ev.memo[id] = v
	return v
}
