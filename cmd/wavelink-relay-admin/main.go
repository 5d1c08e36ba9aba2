package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// A very simple CLI tool for inspecting the live state of a running
// wavelink-relay instance via its admin API.

var (
	serverURL = pflag.StringP("server", "s", "http://localhost:4000", "base URL of the relay")
)

func main() {
	log.SetFlags(0)

	rootCmd := &cobra.Command{
		Use:   "wavelink-relay-admin",
		Short: "inspect a running wavelink-relay",
	}
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)

	cmdShow := &cobra.Command{
		Use:   "show",
		Short: "show live relay state",
	}
	cmdShowOnline := &cobra.Command{
		Use:   "online",
		Short: "list the user identities currently online",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			show("/api/online")
		},
	}
	cmdShowRooms := &cobra.Command{
		Use:   "rooms",
		Short: "list the active rooms and their member counts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			show("/api/rooms")
		},
	}
	cmdShowStats := &cobra.Command{
		Use:   "stats",
		Short: "show relay statistics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			show("/api/stats")
		},
	}
	cmdShowRecent := &cobra.Command{
		Use:   "recent",
		Short: "show the recent-message feed",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			show("/api/recent")
		},
	}

	cmdShow.AddCommand(cmdShowOnline, cmdShowRooms, cmdShowStats, cmdShowRecent)
	rootCmd.AddCommand(cmdShow)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func show(path string) {
	resp, err := http.Get(*serverURL + path)
	if err != nil {
		log.Fatalf("error: could not reach relay: %s", err)
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("error: could not read response: %s", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("error: relay returned %s", resp.Status)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
