package testcases

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/tbxark/phqintake/agent"
	"github.com/tbxark/phqintake/fill"
	"github.com/tbxark/phqintake/followup"
	"github.com/tbxark/phqintake/questionnaire"
	"github.com/tbxark/phqintake/types"
)

type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	err = sonic.Unmarshal(file, &conf)
	if err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{BaseURL:%q, Model:%q}", c.BaseURL, c.Model)
}

func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("PHQINTAKE_RUN_LIVE_TESTS") != "1" {
		t.Skip("set PHQINTAKE_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}

	ctx := context.Background()
	conf, err := loadConfig("../config.json")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		conf.APIKey = key
	}
	if conf.APIKey == "" {
		t.Skip("config.json api_key is empty")
		return nil
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	t.Logf("using %s", conf)
	return chatModel
}

func LoadPHQ9(t *testing.T) types.Questionnaire {
	q, err := questionnaire.Load("../questionnaire/phq9.json")
	if err != nil {
		t.Fatalf("failed to load questionnaire: %v", err)
	}
	return q
}

func NewTestIntake(t *testing.T) *agent.Intake {
	chatModel := InitChatModel(t)
	if chatModel == nil {
		return nil
	}
	schemaJSON, err := questionnaire.Schema()
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}
	processor, err := fill.NewChatProcessor(chatModel, fill.WithSchema(schemaJSON))
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	synthesizer := followup.NewSynthesizer(followup.NewChatGenerator(chatModel))
	return agent.NewIntake(LoadPHQ9(t), processor, synthesizer)
}

func NewTestAgent(t *testing.T) *agent.Agent {
	intake := NewTestIntake(t)
	if intake == nil {
		return nil
	}
	sessions := agent.NewMemorySessionStore(func(ctx context.Context) agent.State {
		return intake.Start()
	})
	return agent.NewAgent("PHQ9Intake", "live test agent", intake, sessions)
}

func answered(st agent.State, id string) bool {
	it, ok := st.Questionnaire.Find(id)
	return ok && it.Answered()
}
