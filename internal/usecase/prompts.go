package usecase

import (
	_ "embed"
)

// System prompts are static artifacts loaded once at start-up.
var (
	//go:embed prompts/enhancer_system.txt
	enhancerSystemPrompt string

	//go:embed prompts/judge_system.txt
	judgeSystemPrompt string
)
