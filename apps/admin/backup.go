package main

import (
	"context"
	"fmt"
	"os"

	"github.com/smkremaja/pkl/core/backup"
)

func (cli *commandLine) backup(dir string) error {
	path, err := cli.svcs.Backups.WriteFile(context.Background(), dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Backup written to %s\n", path)
	return nil
}

func (cli *commandLine) restore(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := backup.Decode(data)
	if err != nil {
		return err
	}
	if err = cli.svcs.Backups.Restore(context.Background(), snap); err != nil {
		return err
	}
	cli.logger.Info("backup restored", map[string]interface{}{"file": path})
	fmt.Fprintln(cli.out, "Backup restored.")
	return nil
}

func (cli *commandLine) wipe(confirmation string) error {
	if err := cli.svcs.Backups.Wipe(context.Background(), confirmation); err != nil {
		return err
	}
	cli.logger.Warn("data wiped")
	fmt.Fprintln(cli.out, "All data has been deleted, the default accounts were recreated.")
	return nil
}
