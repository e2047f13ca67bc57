package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	SynthesisModel  string `yaml:"synthesis_model"`
	LLMMaxRetries   int    `yaml:"llm_max_retries"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	EmployeeDataPath string `yaml:"employee_data_path"`
	BenefitsDataPath string `yaml:"benefits_data_path"`
	FeedbackDataPath string `yaml:"feedback_data_path"`
	PoliciesPath     string `yaml:"policies_path"`

	ResultsPath     string `yaml:"results_path"`
	ReportOutputDir string `yaml:"report_output_dir"`
	DBPath          string `yaml:"db_path"`

	FeedbackLimit     int `yaml:"feedback_limit"`
	PipelineMaxTokens int `yaml:"pipeline_max_tokens"`
	ChatMaxTokens     int `yaml:"chat_max_tokens"`

	HTTPAddr string `yaml:"http_addr"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	SlackAppToken   string `yaml:"slack_app_token"`
	ReportChannelID string `yaml:"report_channel_id"`
	AnalyzeSchedule string `yaml:"analyze_schedule"`

	CompanyName string `yaml:"company_name"`
	Timezone    string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.SynthesisModel, "SYNTHESIS_MODEL")
	envOverrideInt(&cfg.LLMMaxRetries, "LLM_MAX_RETRIES")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.EmployeeDataPath, "EMPLOYEE_DATA_PATH")
	envOverride(&cfg.BenefitsDataPath, "BENEFITS_DATA_PATH")
	envOverride(&cfg.FeedbackDataPath, "FEEDBACK_DATA_PATH")
	envOverride(&cfg.PoliciesPath, "POLICIES_PATH")
	envOverride(&cfg.ResultsPath, "RESULTS_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.FeedbackLimit, "FEEDBACK_LIMIT")
	envOverrideInt(&cfg.PipelineMaxTokens, "PIPELINE_MAX_TOKENS")
	envOverrideInt(&cfg.ChatMaxTokens, "CHAT_MAX_TOKENS")
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.AnalyzeSchedule, "ANALYZE_SCHEDULE")
	envOverride(&cfg.CompanyName, "COMPANY_NAME")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMMaxRetries == 0 {
		cfg.LLMMaxRetries = 3
	}
	if cfg.EmployeeDataPath == "" {
		cfg.EmployeeDataPath = "data/employee_data.csv"
	}
	if cfg.BenefitsDataPath == "" {
		cfg.BenefitsDataPath = "data/benefits_data.csv"
	}
	if cfg.FeedbackDataPath == "" {
		cfg.FeedbackDataPath = "data/feedback_data.csv"
	}
	if cfg.ResultsPath == "" {
		cfg.ResultsPath = "feedback_analysis_results.json"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./benefitsbot.db"
	}
	if cfg.FeedbackLimit == 0 {
		cfg.FeedbackLimit = 50
	}
	if cfg.PipelineMaxTokens == 0 {
		cfg.PipelineMaxTokens = 1000
	}
	if cfg.ChatMaxTokens == 0 {
		cfg.ChatMaxTokens = 300
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "TechLance"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if cfg.LLMMaxRetries < 1 {
		log.Fatalf("invalid llm_max_retries '%d': must be >= 1", cfg.LLMMaxRetries)
	}
	if cfg.FeedbackLimit < 1 {
		log.Fatalf("invalid feedback_limit '%d': must be >= 1", cfg.FeedbackLimit)
	}

	if cfg.Timezone == "Local" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

// SlackConfigured reports whether both Slack tokens are present. The
// analyze/summarize/chat/serve subcommands run without Slack.
func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
