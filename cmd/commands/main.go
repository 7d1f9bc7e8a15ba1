// Command commands registra o lista los slash commands del bot en un servidor.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	discordrouter "github.com/jose-valero/acm-community-bot/internal/adapters/discord"
	"github.com/jose-valero/acm-community-bot/internal/infra/config"
)

type commandAPI interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

var errNoGuild = errors.New("no hay servidor destino (GUILD_ID_TEST / GUILD_ID_PROD)")

type target struct {
	appID   string
	guildID string
}

func resolveTarget(cfg config.Config, override string) (target, error) {
	if override != "" {
		cfg.DeployTarget = override
	}
	if cfg.DeployTarget != "test" && cfg.DeployTarget != "prod" {
		return target{}, fmt.Errorf("target inválido %q (test|prod)", cfg.DeployTarget)
	}
	if cfg.ClientID == "" {
		return target{}, errors.New("falta CLIENT_ID")
	}
	g := cfg.GuildID()
	if g == "" {
		return target{}, errNoGuild
	}
	return target{appID: cfg.ClientID, guildID: g}, nil
}

func deploy(api commandAPI, t target, cmds []*discordgo.ApplicationCommand, out io.Writer) error {
	got, err := api.ApplicationCommandBulkOverwrite(t.appID, t.guildID, cmds)
	if err != nil {
		return fmt.Errorf("bulk overwrite: %w", err)
	}
	fmt.Fprintf(out, "✅ %d comandos registrados en %s\n", len(got), t.guildID)
	return nil
}

func list(api commandAPI, t target, out io.Writer) error {
	cmds, err := api.ApplicationCommands(t.appID, t.guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	if len(cmds) == 0 {
		fmt.Fprintln(out, "(sin comandos registrados)")
		return nil
	}
	for _, line := range summary(cmds) {
		fmt.Fprintln(out, line)
	}
	return nil
}

func summary(cmds []*discordgo.ApplicationCommand) []string {
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		var subs []string
		for _, o := range c.Options {
			if o.Type == discordgo.ApplicationCommandOptionSubCommand {
				subs = append(subs, o.Name)
			}
		}
		line := fmt.Sprintf("/%-14s %s", c.Name, c.Description)
		if len(subs) > 0 {
			line += " [" + strings.Join(subs, ", ") + "]"
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}

func newRootCmd() *cobra.Command {
	var targetFlag string
	var sess commandAPI
	var tgt target

	root := &cobra.Command{
		Use:           "commands",
		Short:         "Gestiona los slash commands del bot ACM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if tgt, err = resolveTarget(cfg, targetFlag); err != nil {
				return err
			}
			s, err := discordgo.New("Bot " + strings.TrimPrefix(strings.TrimSpace(cfg.DiscordToken), "Bot "))
			if err != nil {
				return err
			}
			sess = s
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&targetFlag, "target", "t", "", "servidor destino: test|prod (por defecto DEPLOY_TARGET)")

	root.AddCommand(&cobra.Command{
		Use:   "deploy",
		Short: "Reemplaza los comandos del servidor por los del bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return deploy(sess, tgt, discordrouter.Commands, cmd.OutOrStdout())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Lista los comandos registrados en el servidor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return list(sess, tgt, cmd.OutOrStdout())
		},
	})
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		stop()
		os.Exit(1)
	}
}
