package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/alightgoesout/presage"
	"github.com/alightgoesout/presage/examples/todo"
)

// Script is a list of task commands replayed by the demo command.
//
//	steps:
//	  - command: create-task
//	    task: milk
//	    name: Buy milk
//	  - command: check-task
//	    task: milk
//	    date: 2024-03-04T09:00:00Z
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one command of a script. Task is a reference chosen by the script
// author; the same reference always maps to the same task.
type Step struct {
	Command string    `yaml:"command"`
	Task    string    `yaml:"task,omitempty"`
	Name    string    `yaml:"name,omitempty"`
	Date    time.Time `yaml:"date,omitempty"`
}

// defaultScript is replayed when no script file is given.
const defaultScript = `steps:
  - command: create-task
    task: milk
    name: Buy milk
  - command: create-task
    task: plants
    name: Water the plants
  - command: create-task
    task: taxes
    name: File taxes
  - command: rename-task
    task: milk
    name: Buy oat milk
  - command: check-task
    task: plants
    date: 2024-03-04T09:00:00Z
  - command: check-task
    task: milk
    date: 2024-03-05T18:30:00Z
  - command: archive-done-task
    task: plants
    date: 2024-03-08T12:00:00Z
  - command: delete-archived-tasks
`

// scriptNamespace scopes the task identifiers derived from script references.
var scriptNamespace = uuid.MustParse("0b7f6a0e-4a51-4f0f-9a55-5d3b1bde1a10")

// ParseScript decodes a YAML script and checks every step.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	for i, step := range script.Steps {
		if _, err := step.TaskCommand(time.Time{}); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &script, nil
}

// LoadScript reads a script file. An empty path yields the default script.
func LoadScript(path string) (*Script, error) {
	if path == "" {
		return ParseScript([]byte(defaultScript))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// TaskID returns the identifier a task reference maps to.
func TaskID(ref string) todo.TaskID {
	return presage.NewID[todo.Task](uuid.NewSHA1(scriptNamespace, []byte(ref)))
}

// TaskCommand converts the step into a command. A missing date is replaced by now.
func (s Step) TaskCommand(now time.Time) (presage.Command, error) {
	date := s.Date
	if date.IsZero() {
		date = now
	}

	if s.Command != (todo.DeleteArchivedTasks{}).CommandName() && s.Task == "" {
		return nil, fmt.Errorf("%s needs a task reference", s.Command)
	}
	id := TaskID(s.Task)

	switch s.Command {
	case todo.CreateTask{}.CommandName():
		return todo.CreateTask{ID: id, Name: s.Name}, nil
	case todo.RenameTask{}.CommandName():
		return todo.RenameTask{ID: id, Name: s.Name}, nil
	case todo.CheckTask{}.CommandName():
		return todo.CheckTask{ID: id, Date: date}, nil
	case todo.ArchiveTask{}.CommandName():
		return todo.ArchiveTask{ID: id, Date: date}, nil
	case todo.DeleteArchivedTasks{}.CommandName():
		return todo.DeleteArchivedTasks{}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", s.Command)
	}
}
