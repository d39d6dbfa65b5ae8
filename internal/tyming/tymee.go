package tyming

// Tymee is an embeddable time consumer.
//
// The zero value is unwound: Tyme reports ok=false until Wind is called.
// Owners of sub-consumers override Wind to propagate the new binding.
type Tymee struct {
	tymth Tymth
}

// NewTymee returns a consumer already bound to tymth (which may be nil).
func NewTymee(tymth Tymth) Tymee {
	return Tymee{tymth: tymth}
}

// Wind rebinds the consumer to tymth.
func (t *Tymee) Wind(tymth Tymth) {
	t.tymth = tymth
}

// Tymth returns the current binding, nil when unwound.
func (t *Tymee) Tymth() Tymth {
	return t.tymth
}

// Wound reports whether a time source is bound.
func (t *Tymee) Wound() bool {
	return t.tymth != nil
}

// Tyme reads the bound clock.
func (t *Tymee) Tyme() (float64, bool) {
	if t.tymth == nil {
		return 0, false
	}
	return t.tymth(), true
}
