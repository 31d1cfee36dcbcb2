package lifecycle

// Outcome is the verdict on one observed state relative to the desired state.
type Outcome int

const (
	// Abnormal observations are inconsistent with progress toward the desired
	// state. Waiting further will not help.
	Abnormal Outcome = iota
	// InProgress observations are the transient state that precedes the
	// desired state.
	InProgress
	// Arrived observations are the desired state itself.
	Arrived
)

func (o Outcome) String() string {
	switch o {
	case Arrived:
		return "arrived"
	case InProgress:
		return "in-progress"
	}
	return "abnormal"
}

// transitional maps each desired state to the only state allowed on the way.
var transitional = map[State]State{
	Running: Pending,
	Stopped: Stopping,
}

// Classify decides where current stands relative to desired. An error is only
// returned for a desired state that cannot be waited for, which is a
// configuration problem rather than an observation.
func Classify(current, desired State) (Outcome, error) {
	if err := ValidateDesired(desired); err != nil {
		return Abnormal, err
	}
	switch current {
	case desired:
		return Arrived, nil
	case transitional[desired]:
		return InProgress, nil
	}
	return Abnormal, nil
}

// Check is Classify folded into the shape poll checks want: done on arrival,
// an *AbnormalTransitionError on abnormal observations.
func Check(current, desired State) (bool, error) {
	outcome, err := Classify(current, desired)
	if err != nil {
		return false, err
	}
	switch outcome {
	case Arrived:
		return true, nil
	case InProgress:
		return false, nil
	}
	return false, &AbnormalTransitionError{Current: current, Desired: desired}
}
