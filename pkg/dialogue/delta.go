package dialogue

// Delta is the only way a step changes state. Fields left nil are untouched.
type Delta struct {
	Messages        []Message
	Collected       map[string]string
	Decision        *Decision
	PendingQuestion *string
	ResumeTarget    *StepID
	Completed       bool
	Rejected        *Rejection
	ClearRejected   bool
	Request         *SuspendRequest
}

// Say appends an assistant message.
func (d Delta) Say(text string) Delta {
	if text == "" {
		return d
	}
	d.Messages = append(append([]Message(nil), d.Messages...), Message{Role: RoleAssistant, Text: text})
	return d
}

// Set records a collected field. Empty values are dropped at merge time.
func (d Delta) Set(key, value string) Delta {
	next := make(map[string]string, len(d.Collected)+1)
	for k, v := range d.Collected {
		next[k] = v
	}
	next[key] = value
	d.Collected = next
	return d
}

// Ask diverts into the QA side-channel with question.
func (d Delta) Ask(question string) Delta {
	dec := DecisionAsk
	d.Decision = &dec
	d.PendingQuestion = &question
	return d
}

// Continue records a continue decision.
func (d Delta) Continue() Delta {
	dec := DecisionContinue
	d.Decision = &dec
	return d
}

// Answered clears the pending question and the ask decision.
func (d Delta) Answered() Delta {
	dec := DecisionNone
	empty := ""
	d.Decision = &dec
	d.PendingQuestion = &empty
	return d
}

// Target records where a later continue should land.
func (d Delta) Target(id StepID) Delta {
	d.ResumeTarget = &id
	return d
}

func (d Delta) Complete() Delta {
	d.Completed = true
	return d
}

// Reject marks input the step could not use.
func (d Delta) Reject(step StepID, input, reason string) Delta {
	d.Rejected = &Rejection{Step: step, Input: input, Reason: reason}
	d.ClearRejected = false
	return d
}

func (d Delta) ClearRejection() Delta {
	d.Rejected = nil
	d.ClearRejected = true
	return d
}

// Suspend pauses the thread with req.
func (d Delta) Suspend(req SuspendRequest) Delta {
	d.Request = &req
	return d
}
