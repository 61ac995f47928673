package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/remindme/internal/profile"
	"github.com/hrygo/remindme/internal/version"
	"github.com/hrygo/remindme/server"
	"github.com/hrygo/remindme/server/timezone"
	"github.com/hrygo/remindme/store"
	"github.com/hrygo/remindme/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "remindme",
		Short: `A chat reminder bot. Tell it what to remember in plain words and it will remind you on time.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the bot: the firing loop, the intake loop and the ops HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			if err := instanceProfile.ValidateBot(); err != nil {
				return err
			}
			setupLogger(instanceProfile)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}

			s, err := server.NewServer(instanceProfile, storeInstance)
			if err != nil {
				storeInstance.Close()
				return err
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)

			if err := s.Start(ctx); err != nil {
				s.Shutdown(ctx)
				return err
			}
			printGreetings(instanceProfile)

			<-c
			s.Shutdown(ctx)
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List pending reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			consumed := false
			find := &store.FindFiringRecord{Consumed: &consumed}
			if viper.IsSet("owner") {
				owner := viper.GetInt64("owner")
				find.OwnerID = &owner
			}
			records, err := storeInstance.ListFiringRecords(ctx, find)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No pending reminders.")
				return nil
			}
			now := time.Now()
			for _, r := range records {
				fmt.Fprintln(out, describeRecord(r, now, instanceProfile.Location()))
			}
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetCurrentVersion())
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8082)
	viper.SetDefault("timezone", timezone.DefaultTimezone)

	rootCmd.PersistentFlags().String("config", "", "config file (YAML)")
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the bot, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite or postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("timezone", timezone.DefaultTimezone, "civil timezone used for reminders (IANA name)")
	serveCmd.Flags().String("addr", "", "address of the ops HTTP server")
	serveCmd.Flags().Int("port", 8082, "port of the ops HTTP server, 0 disables it")
	listCmd.Flags().Int64("owner", 0, "only list reminders of this chat")

	for _, name := range []string{"config", "mode", "data", "driver", "dsn", "timezone"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"addr", "port"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("owner", listCmd.Flags().Lookup("owner")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("remindme")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(serveCmd, listCmd, versionCmd)
}

func initConfig() error {
	cfgFile := viper.GetString("config")
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}
	return nil
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:                viper.GetString("mode"),
		Addr:                viper.GetString("addr"),
		Port:                viper.GetInt("port"),
		Data:                viper.GetString("data"),
		Driver:              viper.GetString("driver"),
		DSN:                 viper.GetString("dsn"),
		Timezone:            viper.GetString("timezone"),
		Version:             version.GetCurrentVersion(),
		TelegramToken:       viper.GetString("telegram-token"),
		TelegramBaseURL:     viper.GetString("telegram-base-url"),
		AIOpenAIAPIKey:      viper.GetString("ai-openai-api-key"),
		AIOpenAIBaseURL:     viper.GetString("ai-openai-base-url"),
		AILLMModel:          viper.GetString("ai-llm-model"),
		FiringInterval:      viper.GetDuration("firing-interval"),
		IntakeInterval:      viper.GetDuration("intake-interval"),
		PollTimeout:         viper.GetDuration("poll-timeout"),
		IntakeConcurrency:   viper.GetInt("intake-concurrency"),
		InterpretsPerMinute: viper.GetInt("interprets-per-minute"),
	}
	if raw := viper.GetString("allowed-chats"); raw != "" {
		ids, err := profile.ParseChatIDs(raw)
		if err != nil {
			return nil, err
		}
		instanceProfile.AllowedChats = ids
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return storeInstance, nil
}

func setupLogger(instanceProfile *profile.Profile) {
	var handler slog.Handler
	if instanceProfile.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printGreetings(instanceProfile *profile.Profile) {
	fmt.Printf("remindme %s started successfully!\n", instanceProfile.Version)
	fmt.Printf("Database driver: %s\n", instanceProfile.Driver)
	fmt.Printf("Timezone: %s\n", instanceProfile.Timezone)
	fmt.Printf("Allowed chats: %d\n", len(instanceProfile.AllowedChats))
	if instanceProfile.Port > 0 {
		fmt.Printf("Ops server running on port %d\n", instanceProfile.Port)
	}
}
