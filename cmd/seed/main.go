package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/linkpage/internal/config"
	"github.com/linkpage/internal/db"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/service"
)

// 初始化管理员账号，并在链接表为空时写入内置的默认链接
func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required when the user does not exist yet)")
	withLinks := flag.Bool("links", true, "seed the default links when the store is empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config failed")
	}
	logger.Init(true)

	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal().Err(err).Msg("initialize database failed")
	}

	if *password != "" {
		created, err := db.EnsureUser(db.DB, *username, *password)
		if err != nil {
			logger.Fatal().Err(err).Msg("create admin user failed")
		}
		if created {
			fmt.Printf("admin user %q created\n", *username)
		} else {
			fmt.Printf("admin user %q already exists, skipped\n", *username)
		}
	}

	if !*withLinks {
		return
	}

	var store service.LinkStore = service.NewGormLinkStore(db.DB)
	if cfg.LinkStore == config.LinkStorePostgREST {
		store = service.NewPostgRESTStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.LinksTable)
	}

	count, err := seedDefaultLinks(context.Background(), service.NewLinkService(store, nil))
	if err != nil {
		logger.Fatal().Err(err).Msg("seed links failed")
	}
	fmt.Printf("%d links seeded\n", count)
}

// seedDefaultLinks 仅在存储为空时写入内置链接，返回写入的数量。
func seedDefaultLinks(ctx context.Context, links *service.LinkService) (int, error) {
	existing, err := links.ListLinks(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	source, err := service.LoadStaticLinkSource("")
	if err != nil {
		return 0, err
	}
	defaults, err := source.Links(ctx)
	if err != nil {
		return 0, err
	}

	for _, link := range defaults {
		if _, err := links.CreateLink(ctx, service.LinkInput{Text: link.Text, Href: link.Href, Icon: link.Icon}); err != nil {
			return 0, fmt.Errorf("seed %q: %w", link.Text, err)
		}
	}
	return len(defaults), nil
}
