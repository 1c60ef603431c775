package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultConfigFile is the config file written by the wizard.
const DefaultConfigFile = ".udaplay.yml"

// modelChoices lists the completion models offered per provider.
var modelChoices = map[ProviderType][]string{
	ProviderOpenAI: {"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"},
	ProviderOllama: {"llama3.1", "qwen2.5", "mistral"},
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to UdaPlay! Let's configure your game research agent.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{string(ProviderOpenAI), string(ProviderOllama)},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.EmbeddingProvider = cfg.Provider
	cfg.EmbeddingModel = DefaultEmbeddingModel(cfg.Provider)

	// 2. Model.
	modelPrompt := promptui.Select{
		Label: "Select model",
		Items: modelChoices[cfg.Provider],
	}
	_, cfg.Model, err = modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (vectors, memory, state)",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Game records.
	gamesPrompt := promptui.Prompt{
		Label:   "Directory of game JSON files",
		Default: cfg.GamesDir,
	}
	if cfg.GamesDir, err = gamesPrompt.Run(); err != nil {
		return nil, fmt.Errorf("games dir: %w", err)
	}

	// 5. Sufficiency threshold.
	thresholdPrompt := promptui.Prompt{
		Label:    "Web fallback confidence threshold",
		Default:  strconv.FormatFloat(cfg.Agent.SufficiencyThreshold, 'f', -1, 64),
		Validate: validateUnitFloat,
	}
	thresholdStr, err := thresholdPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	cfg.Agent.SufficiencyThreshold, _ = strconv.ParseFloat(thresholdStr, 64)

	// 6. Trusted sites.
	sitesPrompt := promptui.Prompt{
		Label:   "Trusted sites for web search (comma-separated)",
		Default: strings.Join(cfg.WebSearch.SiteAllowlist, ","),
	}
	sitesStr, err := sitesPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site allowlist: %w", err)
	}
	cfg.WebSearch.SiteAllowlist = splitAndTrim(sitesStr)

	for _, envVar := range []string{APIKeyEnvVar(cfg.Provider), WebSearchKeyEnvVar} {
		if envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running udaplay ask.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateUnitFloat(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("must be within [0, 1]")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
