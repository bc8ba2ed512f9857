package support

import (
	"fmt"
	"os"

	"github.com/MeKo-Tech/snake/internal/testutil"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) aSquareOutlineImage(name string, size, lo, hi int) error {
	if lo < 0 || hi >= size || lo > hi {
		return fmt.Errorf("outline %d..%d does not fit a %d pixel image", lo, hi, size)
	}
	return testutil.WritePNG(testCtx.TempPath(name), testutil.SquareOutline(size, lo, hi))
}

func (testCtx *TestContext) aFilledDiscImage(name string, size int, radius float64) error {
	return testutil.WritePNG(testCtx.TempPath(name), testutil.FilledDisc(size, size, size/2, size/2, radius))
}

func (testCtx *TestContext) aTextFile(name string) error {
	return os.WriteFile(testCtx.TempPath(name), []byte("not an image"), 0o600)
}

// RegisterImageSteps registers steps that generate input images.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a square outline image "([^"]*)" of size (\d+) with edges at (\d+) and (\d+)$`, testCtx.aSquareOutlineImage)
	sc.Step(`^a filled disc image "([^"]*)" of size (\d+) with radius (\d+(?:\.\d+)?)$`, testCtx.aFilledDiscImage)
	sc.Step(`^a text file "([^"]*)"$`, testCtx.aTextFile)
}
