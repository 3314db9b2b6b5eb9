package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "seed-pitcher"
)

type Config struct {
	Founder     *FounderConfig  `mapstructure:"founder"`
	PitchDeck   string          `mapstructure:"pitch-deck"`
	ProfileURLs []string        `mapstructure:"profile-urls"`
	Browser     *BrowserConfig  `mapstructure:"browser"`
	Scoring     *ScoringConfig  `mapstructure:"scoring"`
	AI          *AIConfig       `mapstructure:"ai"`
	Research    *ResearchConfig `mapstructure:"research"`
	StateDir    string          `mapstructure:"state-dir"`
}

type FounderConfig struct {
	Name          string   `mapstructure:"name"`
	Company       string   `mapstructure:"company"`
	ElevatorPitch string   `mapstructure:"elevator-pitch"`
	Sectors       []string `mapstructure:"sectors"`
	Stages        []string `mapstructure:"stages"`
	RaiseAmount   string   `mapstructure:"raise-amount"`
	Highlights    []string `mapstructure:"highlights"`
}

type BrowserConfig struct {
	URL      string `mapstructure:"url"`
	MaxPages int    `mapstructure:"max-pages"`
}

type ScoringConfig struct {
	Threshold float64  `mapstructure:"threshold"`
	Weights   *Weights `mapstructure:"weights"`
}

type Weights struct {
	Sector      float64 `mapstructure:"sector"`
	Stage       float64 `mapstructure:"stage"`
	TrackRecord float64 `mapstructure:"track-record"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type ResearchConfig struct {
	TavilyAPIKeyFile string `mapstructure:"tavily-api-key-file"`
	MaxRetries       int    `mapstructure:"max-retries"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "seed-pitcher finds likely investors among your LinkedIn connections and drafts outreach for your review",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("research.tavily-api-key-file", "TAVILY_API_KEY_FILE"); err != nil {
		log.Fatalf("binding TAVILY_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is seed-pitcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed for the pipeline commands only; version works without it.
	if runCmd.CalledAs() == "" && resumeCmd.CalledAs() == "" && summaryCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
