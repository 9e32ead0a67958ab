// Capture daemon - runs the permission-gated capture session with live
// detection and serves the monitor dashboard.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thepian/capturekit/internal/config"
	"github.com/thepian/capturekit/internal/log"
	"github.com/thepian/capturekit/pkg/capture"
	"github.com/thepian/capturekit/pkg/detect"
	"github.com/thepian/capturekit/pkg/detect/opencv"
	"github.com/thepian/capturekit/pkg/device"
	"github.com/thepian/capturekit/pkg/permission"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
	"github.com/thepian/capturekit/pkg/web"
)

func main() {
	// Command line flags
	port := flag.String("port", config.MonitorPort(), "Monitor dashboard port")
	modelPath := flag.String("model", config.ModelPath(), "YuNet face model path (or set MODEL_PATH env)")
	moviePath := flag.String("movie", "capture-%d.mp4", "Movie output path pattern")
	faces := flag.Bool("faces", config.BoolFlag("DETECT_FACES", true), "Enable face detection")
	codes := flag.Bool("codes", config.BoolFlag("DETECT_CODES", true), "Enable code detection")
	documents := flag.Bool("documents", config.BoolFlag("DETECT_DOCUMENTS", false), "Enable document detection")
	photo := flag.Bool("photo", true, "Enable still photo output")
	movie := flag.Bool("movie-output", false, "Enable movie recording output")
	trusted := flag.Bool("trusted", false, "Skip the camera permission probe (trusted daemon)")
	flag.Parse()

	log.Init(config.LogLevel())

	fmt.Println("📷 Capture Daemon")
	fmt.Printf("   Monitor: http://localhost:%s\n", *port)
	fmt.Printf("   Faces: %v  Codes: %v  Documents: %v\n", *faces, *codes, *documents)
	fmt.Println()

	flags := capture.FeatureFlags{
		Face:     *faces,
		Code:     *codes,
		Document: *documents,
		Reality:  config.BoolFlag("MODE_REALITY", false),
		Photo:    *photo,
		Movie:    *movie,
	}

	// Permission gate: probe the device unless running as a trusted daemon
	var auth permission.Authorizer
	if *trusted {
		auth = permission.NewStatic(permission.Granted)
	} else {
		auth = permission.NewProbe(config.CameraID())
	}
	gate := permission.NewGate(auth)

	// Detector backends per enabled flag
	store := track.NewStore()
	sched, err := buildScheduler(flags, store, *modelPath)
	if err != nil {
		fmt.Printf("❌ Failed to build detection pipeline: %v\n", err)
		os.Exit(1)
	}

	// Device enumeration: local probe plus desktop drivers
	enum := device.Merged{Enumerators: []device.Enumerator{
		device.ProbeEnumerator{MaxIndex: 4},
		device.DriverEnumerator{},
	}}

	sessions, err := buildSessions(flags, *moviePath)
	if err != nil {
		fmt.Printf("❌ Failed to build sessions: %v\n", err)
		os.Exit(1)
	}

	controller, err := capture.NewController(flags, gate, sessions, sched, store, enum)
	if err != nil {
		fmt.Printf("❌ Failed to create controller: %v\n", err)
		os.Exit(1)
	}

	// Monitor server, fed by state transitions and detection updates
	server := web.NewServer(*port, controller, gate, store)
	controller.OnStateChange(server.PublishState)
	controller.OnFrame(server.PublishFrame)
	sched.OnUpdate(server.PublishEntities)

	if err := controller.Configure(); err != nil {
		fmt.Printf("❌ Failed to configure capture: %v\n", err)
		os.Exit(1)
	}

	server.StartAsync()

	// Resolve permission, then bring the session up
	controller.RequestAccess(func(status permission.Status) {
		server.PublishPermission(status)
		if !status.Permits() {
			fmt.Printf("🚫 Camera access %s - capture stays idle\n", status)
			return
		}
		fmt.Println("✅ Capture active")
	})

	// Handle signals as lifecycle events
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 Shutting down...")
	controller.HandleLifecycle(capture.EventEnteredBackground)
	controller.Close()
	server.Shutdown()
}

// buildScheduler wires the detector backends the flag configuration asks
// for into a cadence scheduler.
func buildScheduler(flags capture.FeatureFlags, store *track.Store, modelPath string) (*detect.Scheduler, error) {
	var faces detect.FaceDetector
	var codes detect.CodeDetector
	var regions detect.RegionDetector

	if flags.Face {
		cfg := opencv.DefaultFaceConfig()
		cfg.ModelPath = modelPath
		yunet, err := opencv.NewYuNet(cfg)
		if err != nil {
			return nil, err
		}
		faces = yunet
	}
	if flags.Code {
		codes = opencv.NewQRCode()
	}
	if flags.Document {
		regions = opencv.NewDocument(opencv.DefaultDocumentConfig())
	}

	return detect.NewScheduler(detect.DefaultConfig(), store, faces, codes, regions)
}

// buildSessions creates one session per supported camera mode. A relay or
// network camera configured via env serves the reality mode; the standard
// mode always runs on local hardware.
func buildSessions(flags capture.FeatureFlags, moviePath string) (map[capture.Mode]capture.Session, error) {
	sessions := map[capture.Mode]capture.Session{
		capture.ModeStandard: capture.NewCameraSession(capture.WebcamFactory(source.DefaultConfig()), moviePath),
	}

	if flags.Document || flags.NativeDocument {
		sessions[capture.ModeNativeDocument] = capture.NewCameraSession(
			capture.WebcamFactory(source.DocumentConfig()), moviePath)
	}

	if flags.Reality {
		switch {
		case config.SignalURL() != "":
			factory := capture.StaticFactory(func() source.Source {
				return source.NewNetCam(config.SignalURL(), "camera")
			})
			sessions[capture.ModeReality] = capture.NewCameraSession(factory, moviePath)
		case config.RelayURL() != "":
			factory := capture.StaticFactory(func() source.Source {
				return source.NewRelay(config.RelayURL())
			})
			sessions[capture.ModeReality] = capture.NewCameraSession(factory, moviePath)
		default:
			return nil, fmt.Errorf("reality mode needs SIGNAL_URL or RELAY_URL")
		}
	}

	return sessions, nil
}
