// Command modeltrain trains the glyph classifier from a labeled image
// dataset and writes the model artifact used by the recognition
// pipeline.
//
// The dataset is a directory with one subdirectory per class, named by
// the character it contains ("0".."9", "A".."Z"), each holding glyph
// images in any common format.
//
// Usage: modeltrain -data <dir> -out model.json [options]
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"charscan/internal/classify"
	"charscan/internal/nn"

	"github.com/disintegration/imaging"
)

var (
	flagData    = flag.String("data", "", "Dataset directory (one subdirectory per class)")
	flagOut     = flag.String("out", "model.json", "Output model artifact path")
	flagSize    = flag.Int("size", 28, "Glyph input size (square, pixels)")
	flagEpochs  = flag.Int("epochs", 10, "Training epochs")
	flagBatch   = flag.Int("batch", 32, "Minibatch size")
	flagRate    = flag.Float64("rate", 0.01, "Learning rate")
	flagSeed    = flag.Int64("seed", 1, "Random seed for init and shuffling")
	flagHoldout = flag.Float64("holdout", 0.1, "Fraction of samples held out for validation")
	flagVerbose = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *flagData == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -data <dir> -out model.json [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	classes, samples, err := loadDataset(*flagData, *flagSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d samples across %d classes from %s\n",
		len(samples), len(classes), *flagData)

	train, holdout := splitSamples(samples, *flagHoldout, *flagSeed)
	fmt.Printf("Training on %d samples, validating on %d\n", len(train), len(holdout))

	rng := rand.New(rand.NewSource(*flagSeed))
	net := nn.NewGlyphNet(*flagSize, *flagSize, len(classes), rng)

	opts := nn.TrainOptions{
		Epochs:       *flagEpochs,
		BatchSize:    *flagBatch,
		LearningRate: *flagRate,
		Seed:         *flagSeed,
		Progress: func(epoch int, loss float64) {
			fmt.Printf("  epoch %d/%d: loss=%.4f\n", epoch, *flagEpochs, loss)
		},
	}

	fmt.Println("Training...")
	if err := nn.Train(net, train, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error training: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Training accuracy:   %.1f%%\n", nn.Evaluate(net, train)*100)
	if len(holdout) > 0 {
		fmt.Printf("Validation accuracy: %.1f%%\n", nn.Evaluate(net, holdout)*100)
	}

	model, err := classify.NewModel(classes, net)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building model: %v\n", err)
		os.Exit(1)
	}
	if err := classify.SaveModel(*flagOut, model); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Model written to %s\n", *flagOut)
}

// loadDataset reads a directory-per-class dataset. Class names are the
// subdirectory names, sorted, so the class order is stable across runs.
func loadDataset(dir string, size int) ([]string, []nn.Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var classNames []string
	for _, e := range entries {
		if e.IsDir() {
			classNames = append(classNames, e.Name())
		}
	}
	if len(classNames) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 class directories in %s, found %d", dir, len(classNames))
	}
	sort.Strings(classNames)

	classes := make([]string, len(classNames))
	for i, name := range classNames {
		classes[i] = strings.ToUpper(name)
	}

	var samples []nn.Sample
	for classIdx, name := range classNames {
		classDir := filepath.Join(dir, name)
		files, err := os.ReadDir(classDir)
		if err != nil {
			return nil, nil, err
		}

		loaded := 0
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			path := filepath.Join(classDir, f.Name())
			vol, err := loadGlyphImage(path, size)
			if err != nil {
				if *flagVerbose {
					fmt.Printf("  skipping %s: %v\n", path, err)
				}
				continue
			}
			samples = append(samples, nn.Sample{Input: vol, Class: classIdx})
			loaded++
		}
		if loaded == 0 {
			return nil, nil, fmt.Errorf("class %q has no readable images", name)
		}
		if *flagVerbose {
			fmt.Printf("  class %q: %d samples\n", classes[classIdx], loaded)
		}
	}

	return classes, samples, nil
}

// loadGlyphImage reads one glyph image and converts it to the network
// input: grayscale, size x size, values in [0,1] with ink bright.
func loadGlyphImage(path string, size int) (*nn.Volume, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(imaging.Resize(img, size, size, imaging.Lanczos))

	vol := nn.NewVolume(1, size, size)
	sum := 0.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, _, _, _ := gray.At(x, y).RGBA()
			v := float64(r>>8) / 255.0
			vol.Set(0, y, x, v)
			sum += v
		}
	}

	// Match the pipeline's polarity convention: the glyph occupies the
	// minority of pixels and is brighter than the background. Dark-on-
	// light scans get inverted here.
	if sum/float64(size*size) > 0.5 {
		for i, v := range vol.Data {
			vol.Data[i] = 1.0 - v
		}
	}
	return vol, nil
}

// splitSamples shuffles and splits samples into train and holdout sets.
func splitSamples(samples []nn.Sample, holdoutFrac float64, seed int64) (train, holdout []nn.Sample) {
	shuffled := make([]nn.Sample, len(samples))
	copy(shuffled, samples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := int(float64(len(shuffled)) * holdoutFrac)
	if n >= len(shuffled) {
		n = len(shuffled) - 1
	}
	return shuffled[n:], shuffled[:n]
}
