package queue

// TaskStatus is the status field stored on a task's shared-store hash,
// not to be confused with chain.Status (the in-memory chain's own
// lifecycle). The Queue reads and writes both, keeping them in step.
type TaskStatus string

const (
	TaskEnqueued  TaskStatus = "enqueued"
	TaskCancelled TaskStatus = "cancelled"
)

// Task is a unit of work fetched from the shared store, decoded from a
// harvest-tasks hash per the hash serialization convention.
type Task struct {
	ID       string
	Name     string
	Category string
	Parent   string
	Config   map[string]any
	Priority int
	Status   TaskStatus
}

// FromFields decodes a Task from a hgetall result already passed
// through silo.Decode. Absent optional fields are zero-valued.
func FromFields(fields map[string]any) Task {
	t := Task{}

	if v, ok := fields["id"].(string); ok {
		t.ID = v
	}
	if v, ok := fields["name"].(string); ok {
		t.Name = v
	}
	if v, ok := fields["category"].(string); ok {
		t.Category = v
	}
	if v, ok := fields["parent"].(string); ok {
		t.Parent = v
	}
	if v, ok := fields["status"].(string); ok {
		t.Status = TaskStatus(v)
	}
	if v, ok := fields["config"].(map[string]any); ok {
		t.Config = v
	}
	switch v := fields["priority"].(type) {
	case int64:
		t.Priority = int(v)
	case float64:
		t.Priority = int(v)
	case int:
		t.Priority = v
	}

	return t
}
