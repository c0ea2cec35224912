package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tbxark/phqintake/agent"
	"github.com/tbxark/phqintake/command"
	"github.com/tbxark/phqintake/fill"
	"github.com/tbxark/phqintake/followup"
	"github.com/tbxark/phqintake/questionnaire"
	"github.com/tbxark/phqintake/types"
)

type options struct {
	config        string
	questionnaire string
	session       string
	verbose       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "phq9",
		Short:         "Conversational PHQ-9 intake",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin())
		},
	}
	root.Flags().StringVar(&opts.config, "config", "config.json", "path to config file")
	root.Flags().StringVar(&opts.questionnaire, "questionnaire", "", "path to the questionnaire definition (overrides config)")
	root.Flags().StringVar(&opts.session, "session", "", "session id to resume (default: a new random id)")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	return root
}

func run(ctx context.Context, opts *options, stdin io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetLogLoggerLevel(level)

	config, err := loadConfig(opts.config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.questionnaire != "" {
		config.Questionnaire = opts.questionnaire
	}
	if config.APIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}

	pristine, err := questionnaire.Load(config.Questionnaire)
	if err != nil {
		return err
	}
	schemaJSON, err := questionnaire.Schema()
	if err != nil {
		return fmt.Errorf("questionnaire schema: %w", err)
	}
	timeout, err := config.timeout()
	if err != nil {
		return err
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}
	processor, err := fill.NewChatProcessor(cm,
		fill.WithSchema(schemaJSON),
		fill.WithTimeout(timeout),
		fill.WithRetry(config.maxRetries(), fill.DefaultBackoff),
	)
	if err != nil {
		return fmt.Errorf("create processor: %w", err)
	}
	synthesizer := newSynthesizer(cm, config)
	intake := agent.NewIntake(pristine, processor, synthesizer)

	cache, closeCache, err := newSessionCache(ctx, config)
	if err != nil {
		return err
	}
	defer closeCache()
	sessions := agent.NewSessionStore(cache, func(ctx context.Context) agent.State {
		return intake.Start()
	})

	intakeAgent := agent.NewAgent(
		"PHQ9Intake",
		"An agent that fills the PHQ-9 questionnaire from a free-form conversation",
		intake,
		sessions,
		agent.WithReporter(agent.LogReporter{}),
	)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: intakeAgent,
	})

	sessionID := opts.session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	chatCtx := agent.WithSessionKey(ctx, sessionID)
	slog.Debug("Session ready", "session", sessionID, "questionnaire", config.Questionnaire, "model", config.Model)

	out := newRenderer(os.Stdout)
	parser := command.NewLocalParser()

	if opts.session != "" {
		exists, eErr := sessions.Exists(chatCtx)
		if eErr != nil {
			return fmt.Errorf("check session: %w", eErr)
		}
		if !exists {
			slog.Warn("Session not found, starting a new one", "session", sessionID)
		}
	}
	st, err := sessions.Read(chatCtx)
	if err != nil {
		return err
	}
	out.assistant(intakeAgent.Opening(st))
	if st.Stage == types.StageCompleted {
		result, scored := intake.Score(st)
		out.results(st, result, scored)
	}

	stage := st.Stage
	reader := bufio.NewReader(stdin)
	for {
		out.prompt()
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)

		cmd, _ := parser.ParseCommand(chatCtx, input)
		if cmd == command.Quit {
			return nil
		}

		iter := runner.Run(chatCtx, []adk.Message{schema.UserMessage(input)})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				out.fail(mErr)
				continue
			}
			out.assistant(msg.Content)
		}

		current, err := sessions.Read(chatCtx)
		if err != nil {
			return err
		}
		justCompleted := current.Stage == types.StageCompleted && stage != types.StageCompleted
		if cmd == command.Show || justCompleted {
			result, scored := intake.Score(current)
			out.results(current, result, scored)
		}
		stage = current.Stage
	}
}

// newSynthesizer asks the model first. With offline_followup a keyword
// question covers model failures; otherwise the fixed fallback question does.
func newSynthesizer(cm model.BaseChatModel, config *Config) *followup.Synthesizer {
	var generator followup.Generator = followup.NewChatGenerator(cm, followup.WithLang(config.Lang))
	if config.OfflineFollowUp {
		generator = followup.NewFailbackGenerator(generator, followup.NewLocalGenerator())
	}
	return followup.NewSynthesizer(generator)
}

func newSessionCache(ctx context.Context, config *Config) (agent.Cache[agent.State], func(), error) {
	if config.RedisURL == "" {
		return agent.NewMemoryCache[agent.State](), func() {}, nil
	}
	redisOpts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	ttl, err := config.sessionTTL()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return agent.NewRedisCache[agent.State](client, ttl), func() { _ = client.Close() }, nil
}
