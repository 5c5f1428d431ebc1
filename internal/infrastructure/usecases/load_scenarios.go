package usecases

import (
	"context"
	"fmt"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/scenario"
	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
	"github.com/sophialabs/stubhttp/internal/infrastructure/services"
)

// LoadResult summarises a fixture load.
type LoadResult struct {
	Registered int
	Skipped    int
}

// LoadScenariosUseCase compiles fixture scenarios and registers them with
// the engine, highest priority first.
type LoadScenariosUseCase struct {
	repo     scenario.Repository
	compiler *services.Compiler
	engine   *mock.Engine
	logger   ports.Logger
}

// NewLoadScenariosUseCase creates a new use case.
func NewLoadScenariosUseCase(repo scenario.Repository, compiler *services.Compiler, engine *mock.Engine, logger ports.Logger) *LoadScenariosUseCase {
	return &LoadScenariosUseCase{
		repo:     repo,
		compiler: compiler,
		engine:   engine,
		logger:   logger,
	}
}

// Execute loads and registers every scenario. Duplicate ids fail the whole
// load before anything is registered. A scenario that does not compile is
// skipped with a warning.
func (uc *LoadScenariosUseCase) Execute(ctx context.Context) (LoadResult, error) {
	scenarios, err := uc.repo.LoadAll(ctx)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to load scenarios: %w", err)
	}

	seen := make(map[string]string, len(scenarios))
	for _, s := range scenarios {
		if s.ID == "" {
			continue
		}
		if prev, ok := seen[s.ID]; ok {
			return LoadResult{}, fmt.Errorf("duplicate scenario ID %q in %s and %s", s.ID, prev, s.SourceFile)
		}
		seen[s.ID] = s.SourceFile
	}

	scenario.SortByPriority(scenarios)

	configs := make([]mock.Config, 0, len(scenarios))
	var result LoadResult
	for _, s := range scenarios {
		cfg, err := uc.compiler.CompileScenario(s)
		if err != nil {
			result.Skipped++
			uc.logger.Warn("failed to compile scenario", "id", s.ID, "file", s.SourceFile, "error", err)
			continue
		}
		configs = append(configs, cfg)
	}

	for _, cfg := range configs {
		uc.engine.Add(cfg)
		uc.logger.Debug("registered scenario", "name", cfg.Name, "conditional", cfg.Matcher != nil)
	}
	result.Registered = len(configs)

	uc.logger.Info("fixtures loaded", "registered", result.Registered, "skipped", result.Skipped)
	return result, nil
}
