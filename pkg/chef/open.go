package chef

import (
	"github.com/xob0t/mdlchef/pkg/caption"
	"github.com/xob0t/mdlchef/pkg/config"
	"github.com/xob0t/mdlchef/pkg/formats"
)

// Open builds a service from settings: it indexes the configured format
// repository and creates a renderer with the configured colours. The caller
// closes the repository.
func Open(cfg config.Config) (*Service, *formats.Repository, error) {
	fill, outline, err := cfg.Colors()
	if err != nil {
		return nil, nil, err
	}
	renderer, err := caption.NewRenderer(caption.WithColors(fill, outline))
	if err != nil {
		return nil, nil, err
	}

	repo, err := formats.Open(cfg.RepoFolder, cfg.RepoName)
	if err != nil {
		return nil, nil, err
	}

	svc, err := New(repo, renderer, WithUppercase(cfg.Uppercase))
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	return svc, repo, nil
}
