package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var printCmd = &cobra.Command{
	Use:     "print",
	Aliases: []string{"pretty-print"},
	Short:   "Print device info and channel status",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDevice()
		if err != nil {
			return err
		}
		defer d.Close()

		fmt.Println(d.Info())

		states, err := d.Status()
		if err != nil {
			return err
		}
		chans := make([]int, 0, len(states))
		for n := range states {
			chans = append(chans, n)
		}
		sort.Ints(chans)
		for _, n := range chans {
			fmt.Printf("channel %d: %s\n", n, states[n])
		}

		if s := d.Summary(); s != "" {
			fmt.Println(s)
		}
		return nil
	},
}
