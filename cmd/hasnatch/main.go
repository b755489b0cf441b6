package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/brutella/hc/log"
	"github.com/spf13/pflag"

	"github.com/ra1nb0w/hasnatch"
	"github.com/ra1nb0w/hasnatch/config"
	"github.com/ra1nb0w/hasnatch/ffmpeg"
	"github.com/ra1nb0w/hasnatch/notify"
)

// every line of the diagnostic stream starts with this
const logPrefix = "[hasnatch] "

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	var (
		configPath string
		mode       string
		baseURL    string
		entity     string
		attribute  string
		output     string
		width      uint
		strict     bool
		verbose    bool
	)

	flags := pflag.NewFlagSet("hasnatch", pflag.ContinueOnError)
	flags.SetOutput(out)
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")
	flags.StringVarP(&mode, "mode", "m", "", "acquisition mode: ffmpeg or stream")
	flags.StringVar(&baseURL, "base-url", "", "Home Assistant base url (env HA_BASE_URL)")
	flags.StringVarP(&entity, "entity", "e", "", "entity holding the stream source or access token")
	flags.StringVarP(&attribute, "attribute", "a", "", "attribute holding the stream source or access token")
	flags.StringVarP(&output, "output", "o", "", "snapshot file, overwritten on success")
	flags.UintVar(&width, "width", 0, "scale the snapshot to this width, 0 keeps the source size")
	flags.BoolVar(&strict, "strict", false, "only keep stream frames that decode as JPEG")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	log.Info.SetOutput(out)
	log.Info.SetPrefix(logPrefix)
	log.Debug.SetPrefix(logPrefix + "DEBUG ")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 1
	}

	if verbose {
		log.Debug.SetOutput(out)
		ffmpeg.EnableVerboseLogging()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Info.Printf("Error: %v", err)
		return 1
	}

	// flags win over file and environment
	if flags.Changed("mode") {
		cfg.Mode = config.Mode(mode)
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("entity") {
		cfg.Entity = entity
	}
	if flags.Changed("attribute") {
		cfg.Attribute = attribute
	}
	if flags.Changed("output") {
		cfg.Output = output
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}

	if err := cfg.Validate(); err != nil {
		log.Info.Printf("Error: %v", err)
		return 1
	}

	var opts []hasnatch.Option
	if cfg.MQTT.Broker != "" {
		n, err := notify.Connect(notify.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      byte(cfg.MQTT.QoS),
			Retain:   cfg.MQTT.Retain,
		})
		if err != nil {
			log.Info.Printf("Warning: notifications disabled: %v", err)
		} else {
			defer n.Close()
			opts = append(opts, hasnatch.WithNotifier(n))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug.Printf("mode=%s entity=%s output=%s", cfg.Mode, cfg.EntityID(), cfg.Output)
	if err := hasnatch.New(cfg, opts...).Run(ctx); err != nil {
		log.Info.Printf("Error: %v", err)
		return 1
	}
	return 0
}
