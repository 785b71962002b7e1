package main

import (
	"context"
	"fmt"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/cli"
	"github.com/niksmo/storefront/internal/app"
	"github.com/niksmo/storefront/pkg/sigctx"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()

	var storefront *app.App
	root := cli.NewRootCmd(func(ctx context.Context, path string) (cli.Deps, error) {
		cfg, err := config.Load(path)
		if err != nil {
			return cli.Deps{}, err
		}
		storefront, err = app.New(ctx, cfg)
		if err != nil {
			return cli.Deps{}, err
		}
		return storefront.Deps(), nil
	})

	err := root.ExecuteContext(sigCtx)
	if storefront != nil {
		storefront.Close()
	}
	closeApp()

	if err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		fallDown()
	}
}

func fallDown() {
	os.Exit(2)
}
