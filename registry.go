package guflow

import "time"

// TypeKey identifies a registered activity, lambda or workflow type.
type TypeKey struct {
	Name    string
	Version string
}

// ActivityDefaults are the decision defaults of an activity type.
type ActivityDefaults struct {
	TaskList               string
	TaskPriority           int
	ScheduleToStartTimeout time.Duration
	ScheduleToCloseTimeout time.Duration
	StartToCloseTimeout    time.Duration
	HeartbeatTimeout       time.Duration
}

// LambdaDefaults are the decision defaults of a lambda function.
type LambdaDefaults struct {
	StartToCloseTimeout time.Duration
}

// ChildWorkflowDefaults are the decision defaults of a child workflow type.
type ChildWorkflowDefaults struct {
	TaskList                     string
	TaskPriority                 int
	ChildPolicy                  string
	LambdaRole                   string
	ExecutionStartToCloseTimeout time.Duration
	TaskStartToCloseTimeout      time.Duration
}

// Registry holds the registration defaults used when a workflow does not
// configure an item explicitly. A Registry is safe for concurrent reads once
// populated.
type Registry struct {
	activities map[TypeKey]ActivityDefaults
	lambdas    map[string]LambdaDefaults
	children   map[TypeKey]ChildWorkflowDefaults
}

func NewRegistry() *Registry {
	return &Registry{
		activities: make(map[TypeKey]ActivityDefaults),
		lambdas:    make(map[string]LambdaDefaults),
		children:   make(map[TypeKey]ChildWorkflowDefaults),
	}
}

func (r *Registry) RegisterActivity(name, version string, d ActivityDefaults) {
	r.activities[TypeKey{Name: name, Version: version}] = d
}

func (r *Registry) RegisterLambda(name string, d LambdaDefaults) {
	r.lambdas[name] = d
}

func (r *Registry) RegisterChildWorkflow(name, version string, d ChildWorkflowDefaults) {
	r.children[TypeKey{Name: name, Version: version}] = d
}

// Activity returns the defaults of the activity type or zero defaults if it
// is not registered.
func (r *Registry) Activity(name, version string) ActivityDefaults {
	if r == nil {
		return ActivityDefaults{}
	}
	return r.activities[TypeKey{Name: name, Version: version}]
}

func (r *Registry) Lambda(name string) LambdaDefaults {
	if r == nil {
		return LambdaDefaults{}
	}
	return r.lambdas[name]
}

func (r *Registry) ChildWorkflow(name, version string) ChildWorkflowDefaults {
	if r == nil {
		return ChildWorkflowDefaults{}
	}
	return r.children[TypeKey{Name: name, Version: version}]
}
