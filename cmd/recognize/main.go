// Command recognize runs the recognition pipeline without the GUI, on a
// single image or on live camera frames, and prints the recognized text.
//
// Usage: recognize -model model.json [-mode image|webcam] [input.png]
package main

import (
	"flag"
	"fmt"
	"os"

	"charscan/internal/capture"
	"charscan/internal/classify"
	"charscan/internal/imgio"
	"charscan/internal/ocr"
	"charscan/internal/pipeline"

	"gocv.io/x/gocv"
)

var (
	flagMode     = flag.String("mode", "image", "Input mode: image or webcam")
	flagModel    = flag.String("model", "model.json", "Model artifact path")
	flagCamera   = flag.Int("camera", 0, "Camera device ID for webcam mode")
	flagMinConf  = flag.Float64("min-confidence", 0, "Drop predictions below this confidence")
	flagFallback = flag.Bool("fallback", false, "Consult Tesseract for low-confidence regions")
	flagOut      = flag.String("out", "", "Write an annotated copy of the input to this path")
	flagVerbose  = flag.Bool("v", false, "Print per-region confidence")
)

func main() {
	flag.Parse()

	model, err := classify.LoadModel(*flagModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %v\n", err)
		os.Exit(1)
	}

	opts := pipeline.DefaultOptions()
	opts.MinConfidence = *flagMinConf
	if *flagFallback {
		engine, err := ocr.NewEngine(classify.DefaultAlphabet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting Tesseract fallback: %v\n", err)
			os.Exit(1)
		}
		defer engine.Close()
		opts.Fallback = engine
	}

	switch *flagMode {
	case "image":
		if flag.NArg() < 1 {
			fmt.Fprintf(os.Stderr, "Usage: %s -model model.json [options] <image>\n", os.Args[0])
			flag.PrintDefaults()
			os.Exit(1)
		}
		if err := runImage(flag.Arg(0), model, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "webcam":
		if err := runWebcam(*flagCamera, model, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode %q (want image or webcam)\n", *flagMode)
		os.Exit(1)
	}
}

func runImage(path string, model *classify.Model, opts pipeline.Options) error {
	img, err := imgio.Load(path)
	if err != nil {
		return err
	}
	defer img.Close()

	results, err := pipeline.Recognize(img, model, opts)
	if err != nil {
		return err
	}

	printResults(results)

	if *flagOut != "" {
		annotated := imgio.Annotate(img, results)
		defer annotated.Close()
		if err := imgio.Save(*flagOut, annotated); err != nil {
			return err
		}
		fmt.Printf("Annotated image written to %s\n", *flagOut)
	}
	return nil
}

func runWebcam(deviceID int, model *classify.Model, opts pipeline.Options) error {
	camera, err := capture.Open(deviceID)
	if err != nil {
		return err
	}
	defer camera.Close()

	fmt.Printf("Reading from camera %d, Ctrl-C to stop\n", deviceID)
	return camera.Run(func(frame gocv.Mat) bool {
		results, err := pipeline.Recognize(frame, model, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "frame dropped: %v\n", err)
			return true
		}
		if len(results) > 0 {
			printResults(results)
		}
		return true
	})
}

func printResults(results []pipeline.Result) {
	if *flagVerbose {
		for _, r := range results {
			fmt.Printf("  (%d,%d) %dx%d: %s %.2f\n",
				r.Region.X, r.Region.Y, r.Region.Width, r.Region.Height,
				r.Pred.Label, r.Pred.Confidence)
		}
	}
	fmt.Println(pipeline.Text(results))
}
