// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken  string
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	ArtifactName string

	WeaviateHost   string
	WeaviateScheme string
	Collection     string

	OpenAIKey      string
	EmbedModel     string
	EmbedCostPer1K float64

	ListenAddr string
}

// Load reads configuration from environment variables and returns a validated
// Config. Required: RELEASEGATE_GITHUB_TOKEN, RELEASEGATE_GITHUB_OWNER,
// RELEASEGATE_GITHUB_REPO, RELEASEGATE_OPENAI_API_KEY. Everything else has a
// default suitable for a local Weaviate instance.
func Load() (*Config, error) {
	token := os.Getenv("RELEASEGATE_GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("RELEASEGATE_GITHUB_TOKEN is required")
	}
	owner := os.Getenv("RELEASEGATE_GITHUB_OWNER")
	if owner == "" {
		return nil, fmt.Errorf("RELEASEGATE_GITHUB_OWNER is required")
	}
	repo := os.Getenv("RELEASEGATE_GITHUB_REPO")
	if repo == "" {
		return nil, fmt.Errorf("RELEASEGATE_GITHUB_REPO is required")
	}
	openAIKey := os.Getenv("RELEASEGATE_OPENAI_API_KEY")
	if openAIKey == "" {
		return nil, fmt.Errorf("RELEASEGATE_OPENAI_API_KEY is required")
	}

	embedCost := 0.00002
	if v, ok := os.LookupEnv("RELEASEGATE_EMBED_COST_PER_1K"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("RELEASEGATE_EMBED_COST_PER_1K has invalid value %q", v)
		}
		embedCost = parsed
	}

	return &Config{
		GitHubToken:    token,
		GitHubOwner:    owner,
		GitHubRepo:     repo,
		GitHubBranch:   envOr("RELEASEGATE_GITHUB_BRANCH", "main"),
		ArtifactName:   envOr("RELEASEGATE_ARTIFACT_NAME", "build-reports"),
		WeaviateHost:   envOr("RELEASEGATE_WEAVIATE_HOST", "localhost:8080"),
		WeaviateScheme: envOr("RELEASEGATE_WEAVIATE_SCHEME", "http"),
		Collection:     envOr("RELEASEGATE_COLLECTION", "ReleaseArtifact"),
		OpenAIKey:      openAIKey,
		EmbedModel:     envOr("RELEASEGATE_EMBED_MODEL", "text-embedding-3-small"),
		EmbedCostPer1K: embedCost,
		ListenAddr:     envOr("RELEASEGATE_LISTEN_ADDR", "127.0.0.1:8090"),
	}, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
