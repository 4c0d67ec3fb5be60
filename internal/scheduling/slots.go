package scheduling

// GenerateSlots returns slot labels every intervalMin minutes from
// workStart (inclusive) to workEnd (exclusive). An empty window or a
// non-positive interval yields an empty sequence.
func GenerateSlots(workStart, workEnd string, intervalMin int) ([]string, error) {
	w, err := ParseWindow(workStart, workEnd)
	if err != nil {
		return nil, err
	}
	return w.Slots(intervalMin), nil
}

func (w Window) Slots(intervalMin int) []string {
	if w.Empty() || intervalMin <= 0 {
		return []string{}
	}

	slots := make([]string, 0, (w.End-w.Start+intervalMin-1)/intervalMin)
	for m := w.Start; m < w.End; m += intervalMin {
		slots = append(slots, FormatClock(m))
	}
	return slots
}
