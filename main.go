package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookshop-management/bookshop"
	"bookshop-management/config"
	"bookshop-management/export"
	"bookshop-management/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bookshop",
		Short:         "GENIUS BOOKS inventory and point-of-sale",
		Long:          "Menu-driven inventory and point-of-sale for the GENIUS BOOKS shop.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openEnv(cmd, configPath)
			if err != nil {
				return err
			}
			defer rt.close()
			return newApp(rt.shop, cmd.InOrStdin(), cmd.OutOrStdout(), rt.cfg.Receipts.Dir).run()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./bookshop.yaml)")
	pf.String("store", "", "store kind: file, sqlite or memory")
	pf.String("data-dir", "", "directory holding the data files")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-file", "", `log file ("-" for stderr)`)
	pf.String("sale-ids", "", "sale id scheme: sequential or uuid")
	pf.String("receipts-dir", "", "write a PDF receipt for every sale into this directory")

	root.AddCommand(newExportCmd(&configPath), newReceiptCmd(&configPath))
	return root
}

// appEnv is everything a command needs, opened from configuration.
type appEnv struct {
	cfg  *config.Config
	log  *logger.Logger
	shop *bookshop.Shop
}

func openEnv(cmd *cobra.Command, configPath string) (*appEnv, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	store, err := bookshop.OpenStore(bookshop.StoreOptions{
		Kind:       cfg.Store.Kind,
		Dir:        cfg.Store.Dir,
		BooksFile:  cfg.Store.BooksFile,
		SalesFile:  cfg.Store.SalesFile,
		UsersFile:  cfg.Store.UsersFile,
		SQLitePath: cfg.Store.SQLitePath,
	})
	if err != nil {
		log.Error().Err(err).Str("kind", cfg.Store.Kind).Msg("open store")
		log.Close()
		return nil, err
	}

	var ids bookshop.SaleIDGenerator = bookshop.SequentialIDs{}
	if cfg.Sales.IDScheme == "uuid" {
		ids = bookshop.UUIDIDs{}
	}
	company := bookshop.Company(cfg.Company)

	shop, err := bookshop.Open(store, bookshop.Options{
		Logger:  log.Zerolog(),
		SaleIDs: ids,
		Company: &company,
	})
	if err != nil {
		log.Error().Err(err).Msg("load shop data")
		store.Close()
		log.Close()
		return nil, fmt.Errorf("startup aborted: %w", err)
	}
	return &appEnv{cfg: cfg, log: log, shop: shop}, nil
}

func (rt *appEnv) close() {
	if err := rt.shop.Close(); err != nil {
		rt.log.Error().Err(err).Msg("close store")
	}
	rt.log.Close()
}

// login authenticates the --user/--password flags of a one-shot command,
// prompting for the password when the flag is empty.
func login(cmd *cobra.Command, shop *bookshop.Shop, user, password string) (*bookshop.Session, error) {
	if user == "" {
		return nil, errors.New("--user is required")
	}
	if password == "" {
		p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		var err error
		if password, err = p.password("Enter Password: "); err != nil {
			return nil, err
		}
	}
	return shop.Login(user, password)
}

func newExportCmd(configPath *string) *cobra.Command {
	var user, password, out string

	sales := &cobra.Command{
		Use:   "sales",
		Short: "Export the sales history to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openEnv(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			sess, err := login(cmd, rt.shop, user, password)
			if err != nil {
				return err
			}
			report, err := rt.shop.ExportSales(sess)
			if err != nil {
				return err
			}
			if err := export.SaveSalesXLSX(out, report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sales (total $%s) to %s\n",
				report.Count, report.Revenue.StringFixed(2), out)
			return nil
		},
	}
	sales.Flags().StringVarP(&user, "user", "u", "", "username")
	sales.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	sales.Flags().StringVarP(&out, "out", "o", "sales.xlsx", "output file")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export shop data to files",
	}
	exportCmd.AddCommand(sales)
	return exportCmd
}

func newReceiptCmd(configPath *string) *cobra.Command {
	var user, password, out string

	cmd := &cobra.Command{
		Use:   "receipt <sale-id>",
		Short: "Render the PDF receipt of a recorded sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openEnv(cmd, *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			sess, err := login(cmd, rt.shop, user, password)
			if err != nil {
				return err
			}
			sale, err := rt.shop.FindSale(sess, args[0])
			if err != nil {
				return err
			}
			data, err := export.ReceiptPDF(sale, rt.shop.Company())
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = sale.SaleID + ".pdf"
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Receipt for %s written to %s\n", sale.SaleID, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <sale-id>.pdf)")
	return cmd
}
