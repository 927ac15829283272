package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) purgeReviews() error {
	n, err := cli.uniRepo.PurgeReviews(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d review(s)\n", n)
	return nil
}
