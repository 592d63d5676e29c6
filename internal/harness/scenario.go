package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/santa/internal/command"
)

// Scenario defines one exchange scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Operator is the participant allowed to start the exchange.
	Operator string `yaml:"operator"`

	// Locale selects reply and message text. Defaults to en.
	Locale string `yaml:"locale,omitempty"`

	// Shuffle is "rotate" (default) or "seeded".
	Shuffle string `yaml:"shuffle,omitempty"`

	// Seed seeds the seeded shuffle.
	Seed uint64 `yaml:"seed,omitempty"`

	// Participants are registered before the flow runs. Registration is
	// expected to succeed.
	Participants []Participant `yaml:"participants"`

	// Flow is the sequence of requests under test.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Participant is a cohort member and how the gateway treats them.
type Participant struct {
	ID          string `yaml:"id"`
	Recipient   string `yaml:"recipient"`
	Ozon        string `yaml:"ozon,omitempty"`
	Wildberries string `yaml:"wildberries,omitempty"`
	Yandex      string `yaml:"yandex,omitempty"`
	Note        string `yaml:"note,omitempty"`

	// Unreachable participants do not accept private messages.
	Unreachable bool `yaml:"unreachable,omitempty"`

	// Broken participants fail every delivery with a transport error.
	Broken bool `yaml:"broken,omitempty"`
}

// Profile is a profile submission inside a flow step.
type Profile struct {
	Recipient   string `yaml:"recipient"`
	Ozon        string `yaml:"ozon,omitempty"`
	Wildberries string `yaml:"wildberries,omitempty"`
	Yandex      string `yaml:"yandex,omitempty"`
	Note        string `yaml:"note,omitempty"`
}

// FlowStep is one request.
type FlowStep struct {
	// Invoke is the request kind: submit_profile, start_exchange or forward.
	Invoke string `yaml:"invoke"`

	// Sender is the participant making the request.
	Sender string `yaml:"sender"`

	// Channel is dm (default) or guild.
	Channel string `yaml:"channel,omitempty"`

	// Profile is the submission for submit_profile.
	Profile *Profile `yaml:"profile,omitempty"`

	// Attachment is the attachment URL for forward.
	Attachment string `yaml:"attachment,omitempty"`

	// Note accompanies a forward.
	Note string `yaml:"note,omitempty"`

	// Expect checks the final reply. If nil, the reply is not checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected reply.
type ExpectClause struct {
	// OK is the expected success flag.
	OK bool `yaml:"ok"`

	// Code is the expected reply code. Empty matches only an empty code.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Participant is used by assignment and delivery_count.
	Participant string `yaml:"participant,omitempty"`

	// Target is used by assignment.
	Target string `yaml:"target,omitempty"`

	// Kind optionally narrows delivery_count to assignment or gift messages.
	Kind string `yaml:"kind,omitempty"`

	// Count is used by delivery_count and journal_count.
	Count int `yaml:"count,omitempty"`

	// Participants is used by failed.
	Participants []string `yaml:"participants,omitempty"`
}

// Assertion type constants.
const (
	AssertDerangement   = "derangement"
	AssertAssignment    = "assignment"
	AssertDeliveryCount = "delivery_count"
	AssertFailed        = "failed"
	AssertJournalCount  = "journal_count"
)

// Shuffle modes.
const (
	ShuffleRotate = "rotate"
	ShuffleSeeded = "seeded"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Operator == "" {
		return fmt.Errorf("operator is required")
	}
	switch s.Shuffle {
	case "", ShuffleRotate, ShuffleSeeded:
	default:
		return fmt.Errorf("unknown shuffle %q", s.Shuffle)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Participants))
	for i, p := range s.Participants {
		if p.ID == "" {
			return fmt.Errorf("participants[%d]: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("participants[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
		if p.Unreachable && p.Broken {
			return fmt.Errorf("participants[%d]: unreachable and broken are exclusive", i)
		}
	}

	for i, step := range s.Flow {
		switch command.Kind(step.Invoke) {
		case command.KindSubmitProfile, command.KindStartExchange, command.KindForward:
		case "":
			return fmt.Errorf("flow[%d]: invoke is required", i)
		default:
			return fmt.Errorf("flow[%d]: unknown invoke %q", i, step.Invoke)
		}
		if step.Sender == "" {
			return fmt.Errorf("flow[%d]: sender is required", i)
		}
		switch command.Channel(step.Channel) {
		case "", command.ChannelDM, command.ChannelGuild:
		default:
			return fmt.Errorf("flow[%d]: unknown channel %q", i, step.Channel)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertDerangement:
	case AssertAssignment:
		if a.Participant == "" || a.Target == "" {
			return fmt.Errorf("assertions[%d]: participant and target are required for assignment", index)
		}
	case AssertDeliveryCount:
		if a.Participant == "" {
			return fmt.Errorf("assertions[%d]: participant is required for delivery_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for delivery_count", index)
		}
	case AssertFailed:
	case AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for journal_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
