package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/yaml.v3"
)

// snippet mirrors the discord section of config.yaml
type snippet struct {
	Discord struct {
		GuildID      string `yaml:"guild_id"`
		LogChannelID string `yaml:"log_channel_id"`
	} `yaml:"discord"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: resolve-log-channel <guild-id> [channel-name]")
		fmt.Println("\nReads the bot token from TOKEN.")
		fmt.Println("\nExample:")
		fmt.Println("  TOKEN=... resolve-log-channel 123456789012345678 mod-log")
		os.Exit(1)
	}

	token := os.Getenv("TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "TOKEN is not set")
		os.Exit(1)
	}

	guildID := os.Args[1]
	want := ""
	if len(os.Args) > 2 {
		want = strings.TrimPrefix(os.Args[2], "#")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create session: %v\n", err)
		os.Exit(1)
	}

	channels, err := dg.GuildChannels(guildID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list channels for guild %s: %v\n", guildID, err)
		os.Exit(1)
	}

	var text []*discordgo.Channel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			text = append(text, ch)
		}
	}
	sort.Slice(text, func(i, j int) bool { return text[i].Position < text[j].Position })

	if want == "" {
		fmt.Printf("Text channels in guild %s:\n---\n", guildID)
		for _, ch := range text {
			fmt.Printf("#%s: %s\n", ch.Name, ch.ID)
		}
		return
	}

	for _, ch := range text {
		if !strings.EqualFold(ch.Name, want) {
			continue
		}
		var s snippet
		s.Discord.GuildID = guildID
		s.Discord.LogChannelID = ch.ID
		out, err := yaml.Marshal(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode snippet: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Add this to your config.yaml:")
		fmt.Println("---")
		fmt.Print(string(out))
		return
	}

	fmt.Fprintf(os.Stderr, "✗ No text channel named #%s in guild %s\n", want, guildID)
	os.Exit(1)
}
