package host

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"gopkg.in/yaml.v3"

	"github.com/gurmitteotia/guflow-sub003"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the YAML configuration of a host and the registration defaults
// of the types its workflows schedule.
type Config struct {
	Identity       string          `yaml:"identity"`
	Shards         int             `yaml:"shards" validate:"gte=0,lte=1024"`
	PollBackoff    time.Duration   `yaml:"poll_backoff" validate:"gte=0"`
	Activities     []ActivityType  `yaml:"activities" validate:"dive"`
	Lambdas        []LambdaType    `yaml:"lambdas" validate:"dive"`
	ChildWorkflows []ChildWorkflow `yaml:"child_workflows" validate:"dive"`
}

type ActivityType struct {
	Name                   string        `yaml:"name" validate:"required"`
	Version                string        `yaml:"version"`
	TaskList               string        `yaml:"task_list"`
	TaskPriority           int           `yaml:"task_priority"`
	ScheduleToStartTimeout time.Duration `yaml:"schedule_to_start_timeout" validate:"gte=0"`
	ScheduleToCloseTimeout time.Duration `yaml:"schedule_to_close_timeout" validate:"gte=0"`
	StartToCloseTimeout    time.Duration `yaml:"start_to_close_timeout" validate:"gte=0"`
	HeartbeatTimeout       time.Duration `yaml:"heartbeat_timeout" validate:"gte=0"`
}

type LambdaType struct {
	Name                string        `yaml:"name" validate:"required"`
	StartToCloseTimeout time.Duration `yaml:"start_to_close_timeout" validate:"gte=0"`
}

type ChildWorkflow struct {
	Name                         string        `yaml:"name" validate:"required"`
	Version                      string        `yaml:"version"`
	TaskList                     string        `yaml:"task_list"`
	TaskPriority                 int           `yaml:"task_priority"`
	ChildPolicy                  string        `yaml:"child_policy" validate:"omitempty,oneof=TERMINATE REQUEST_CANCEL ABANDON"`
	LambdaRole                   string        `yaml:"lambda_role"`
	ExecutionStartToCloseTimeout time.Duration `yaml:"execution_start_to_close_timeout" validate:"gte=0"`
	TaskStartToCloseTimeout      time.Duration `yaml:"task_start_to_close_timeout" validate:"gte=0"`
}

// LoadConfig reads and validates the YAML configuration at path.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config", j.KS("path", path))
	}

	c, err := ParseConfig(b)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config", j.KS("path", path))
	}

	return c, nil
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(b []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}

	return c, nil
}

// Registry returns the registration defaults of the configured types.
func (c Config) Registry() *guflow.Registry {
	r := guflow.NewRegistry()

	for _, a := range c.Activities {
		r.RegisterActivity(a.Name, a.Version, guflow.ActivityDefaults{
			TaskList:               a.TaskList,
			TaskPriority:           a.TaskPriority,
			ScheduleToStartTimeout: a.ScheduleToStartTimeout,
			ScheduleToCloseTimeout: a.ScheduleToCloseTimeout,
			StartToCloseTimeout:    a.StartToCloseTimeout,
			HeartbeatTimeout:       a.HeartbeatTimeout,
		})
	}

	for _, l := range c.Lambdas {
		r.RegisterLambda(l.Name, guflow.LambdaDefaults{StartToCloseTimeout: l.StartToCloseTimeout})
	}

	for _, cw := range c.ChildWorkflows {
		r.RegisterChildWorkflow(cw.Name, cw.Version, guflow.ChildWorkflowDefaults{
			TaskList:                     cw.TaskList,
			TaskPriority:                 cw.TaskPriority,
			ChildPolicy:                  cw.ChildPolicy,
			LambdaRole:                   cw.LambdaRole,
			ExecutionStartToCloseTimeout: cw.ExecutionStartToCloseTimeout,
			TaskStartToCloseTimeout:      cw.TaskStartToCloseTimeout,
		})
	}

	return r
}

// Options returns the host options of the configuration. Unset values keep
// the defaults.
func (c Config) Options() []option {
	var opts []option
	if c.Identity != "" {
		opts = append(opts, WithIdentity(c.Identity))
	}
	if c.Shards > 0 {
		opts = append(opts, WithShards(c.Shards))
	}
	if c.PollBackoff > 0 {
		opts = append(opts, WithPollBackoff(c.PollBackoff))
	}
	return opts
}
