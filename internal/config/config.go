package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Assistant struct {
		InferenceURL   string
		SpeechURL      string
		Language       string
		WelcomeMessage string
		Currency       string
	}
	Reveal struct {
		Enabled bool
		TickMs  int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("assistant.language", "en")
	v.SetDefault("assistant.welcome_message", "<p>Hi! I'm your business assistant. Ask me anything about your sales, expenses or inventory.</p>")
	v.SetDefault("assistant.currency", "$")

	v.SetDefault("reveal.enabled", true)
	v.SetDefault("reveal.tick_ms", 30)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("assistant.inference_url", "INFERENCE_URL")
	v.BindEnv("assistant.speech_url", "SPEECH_URL")
	v.BindEnv("assistant.language", "ASSISTANT_LANGUAGE")
	v.BindEnv("assistant.welcome_message", "ASSISTANT_WELCOME")
	v.BindEnv("assistant.currency", "ASSISTANT_CURRENCY")

	v.BindEnv("reveal.enabled", "REVEAL_ENABLED")
	v.BindEnv("reveal.tick_ms", "REVEAL_TICK_MS")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Assistant.InferenceURL = v.GetString("assistant.inference_url")
	c.Assistant.SpeechURL = v.GetString("assistant.speech_url")
	c.Assistant.Language = v.GetString("assistant.language")
	c.Assistant.WelcomeMessage = v.GetString("assistant.welcome_message")
	c.Assistant.Currency = v.GetString("assistant.currency")

	c.Reveal.Enabled = v.GetBool("reveal.enabled")
	c.Reveal.TickMs = v.GetInt("reveal.tick_ms")

	log.Printf("config loaded: port=%s inference=%q speech=%q lang=%s", c.Server.Port, c.Assistant.InferenceURL, c.Assistant.SpeechURL, c.Assistant.Language)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
