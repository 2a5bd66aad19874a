package models

// AllModels lists every table the service migrates, parents first.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&PhoneNumber{},
		&Lead{},
		&Workflow{},
		&WorkflowStep{},
		&MessageThread{},
		&Message{},
	}
}
