package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/labelvision/internal/scanerr"
)

// fakeClient stands in for a Tesseract client. Like gosseract, only the
// layout mode held in the client variables reaches recognition; modes records
// the mode in effect at each Text or GetBoundingBoxes call. Text answers per
// layout mode; GetBoundingBoxes pops from a queue shared by every client the
// factory hands out.
type fakeClient struct {
	texts      map[gosseract.PageSegMode]string
	textErr    error
	langErr    error
	boxQueue   [][]gosseract.BoundingBox
	fixedBoxes []gosseract.BoundingBox

	vars   map[gosseract.SettableVariable]string
	calls  []string
	modes  []gosseract.PageSegMode
	langs  []string
	prefix string
	images int
	closed int
}

// recognize records the layout mode Tesseract would run with.
func (f *fakeClient) recognize(call string) gosseract.PageSegMode {
	mode := gosseract.PSM_SINGLE_BLOCK
	if v, ok := f.vars[pageSegModeVar]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic("bad page segmentation mode " + v)
		}
		mode = gosseract.PageSegMode(n)
	}
	f.calls = append(f.calls, call)
	f.modes = append(f.modes, mode)
	return mode
}

func (f *fakeClient) SetTessdataPrefix(prefix string) error {
	f.prefix = prefix
	return nil
}

func (f *fakeClient) SetLanguage(langs ...string) error {
	f.langs = langs
	return f.langErr
}

func (f *fakeClient) SetVariable(key gosseract.SettableVariable, value string) error {
	if f.vars == nil {
		f.vars = map[gosseract.SettableVariable]string{}
	}
	f.vars[key] = value
	f.calls = append(f.calls, "set:"+string(key))
	return nil
}

func (f *fakeClient) SetImageFromBytes(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image")
	}
	f.images++
	return nil
}

func (f *fakeClient) Text() (string, error) {
	mode := f.recognize("text")
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.texts[mode], nil
}

func (f *fakeClient) GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error) {
	f.recognize("boxes")
	if f.fixedBoxes != nil {
		return f.fixedBoxes, nil
	}
	if len(f.boxQueue) == 0 {
		return nil, nil
	}
	next := f.boxQueue[0]
	f.boxQueue = f.boxQueue[1:]
	return next, nil
}

func (f *fakeClient) Close() error {
	f.closed++
	return nil
}

func newFakeEngine(t *testing.T, kind Kind, opts Options, fake *fakeClient) Engine {
	t.Helper()
	engine, err := newEngine(kind, opts, func() recognizer { return fake }, zerolog.Nop())
	require.NoError(t, err)
	return engine
}

// textImage renders lines of black basicfont text on white, scaled up.
func textImage(lines []string, scale int) *image.RGBA {
	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, len(l))
	}
	small := image.NewRGBA(image.Rect(0, 0, maxLen*7+40, len(lines)*16+30))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	for i, l := range lines {
		d := &font.Drawer{
			Dst:  small,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.I(20), Y: fixed.I(20 + i*16)},
		}
		d.DrawString(l)
	}

	b := small.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(" " + string(k) + " ")
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("CURVED")
	require.NoError(t, err)
	assert.Equal(t, KindCurved, got)

	_, err = ParseKind("easyocr")
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	factory := func() recognizer { return &fakeClient{} }

	_, err := newEngine("paddle", Options{}, factory, zerolog.Nop())
	assert.True(t, scanerr.Is(err, scanerr.CodeEngineInitFailed))

	_, err = newEngine(KindTesseract, Options{Languages: []string{" "}}, factory, zerolog.Nop())
	assert.True(t, scanerr.Is(err, scanerr.CodeEngineInitFailed))

	_, err = newEngine(KindTesseract, Options{MinConfidence: 2}, factory, zerolog.Nop())
	assert.True(t, scanerr.Is(err, scanerr.CodeEngineInitFailed))

	engine, err := newEngine(KindMultilingual, Options{UseGPU: true}, factory, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "multilingual", engine.Name())
	assert.Equal(t, []string{"eng"}, engine.(*MultilingualEngine).opts.Languages)
}

func TestTesseractEngine_GibberishRejectedAtEveryTier(t *testing.T) {
	fake := &fakeClient{texts: map[gosseract.PageSegMode]string{
		gosseract.PSM_SINGLE_BLOCK: "a1!@#$%^&*b",
		gosseract.PSM_SPARSE_TEXT:  "~~ ¢ø å ## ||",
		gosseract.PSM_AUTO:         "x%$#@!^&*()y%$",
	}}
	engine := newFakeEngine(t, KindTesseract, Options{}, fake)

	text, err := engine.ExtractText(context.Background(), image.NewRGBA(image.Rect(0, 0, 400, 100)))
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, []gosseract.PageSegMode{
		gosseract.PSM_SINGLE_BLOCK, gosseract.PSM_SPARSE_TEXT, gosseract.PSM_AUTO,
	}, fake.modes)
	assert.Equal(t, 1, fake.closed)
}

func TestTesseractEngine_FirstValidTierWins(t *testing.T) {
	fake := &fakeClient{texts: map[gosseract.PageSegMode]string{
		gosseract.PSM_SINGLE_BLOCK: "",
		gosseract.PSM_SPARSE_TEXT:  "  Ceramide Mochi Toner\n",
		gosseract.PSM_AUTO:         "should not be reached",
	}}
	engine := newFakeEngine(t, KindTesseract, Options{Languages: []string{"eng", "kor"}, TessdataPrefix: "/opt/tessdata"}, fake)

	text, err := engine.ExtractText(context.Background(), image.NewRGBA(image.Rect(0, 0, 400, 100)))
	require.NoError(t, err)
	assert.Equal(t, "Ceramide Mochi Toner", text)
	assert.Len(t, fake.modes, 2)
	assert.Equal(t, []string{"eng", "kor"}, fake.langs)
	assert.Equal(t, "/opt/tessdata", fake.prefix)
}

func TestTesseractEngine_Errors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))

	t.Run("recognition failure", func(t *testing.T) {
		engine := newFakeEngine(t, KindTesseract, Options{}, &fakeClient{textErr: errors.New("tesseract crashed")})
		_, err := engine.ExtractText(context.Background(), img)
		require.Error(t, err)
		assert.True(t, scanerr.Is(err, scanerr.CodeOCRFailed))
	})

	t.Run("language failure", func(t *testing.T) {
		engine := newFakeEngine(t, KindTesseract, Options{}, &fakeClient{langErr: errors.New("missing traineddata")})
		_, err := engine.ExtractText(context.Background(), img)
		assert.True(t, scanerr.Is(err, scanerr.CodeEngineInitFailed))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		engine := newFakeEngine(t, KindTesseract, Options{}, &fakeClient{})
		_, err := engine.ExtractText(ctx, img)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMultilingualEngine_PicksBestRotation(t *testing.T) {
	fake := &fakeClient{boxQueue: [][]gosseract.BoundingBox{
		{{Word: "Ceramide Toner sample", Confidence: 40}},
		{
			{Word: "Ceramide Mochi Toner label", Confidence: 90},
			{Word: "faint noise line", Confidence: 10},
		},
		{{Word: "#@!", Confidence: 95}},
		nil,
	}}
	engine := newFakeEngine(t, KindMultilingual, Options{MinConfidence: 0.3}, fake)

	text, err := engine.ExtractText(context.Background(), image.NewRGBA(image.Rect(0, 0, 320, 200)))
	require.NoError(t, err)
	assert.Equal(t, "Ceramide Mochi Toner label", text)
	assert.Equal(t, 4, fake.images)
	assert.Equal(t, 4, fake.closed)
	for _, m := range fake.modes {
		assert.Equal(t, gosseract.PSM_AUTO_OSD, m)
	}
}

func TestMultilingualEngine_NothingValid(t *testing.T) {
	fake := &fakeClient{fixedBoxes: []gosseract.BoundingBox{{Word: "%%%%", Confidence: 99}}}
	engine := newFakeEngine(t, KindMultilingual, Options{}, fake)

	text, err := engine.ExtractText(context.Background(), image.NewRGBA(image.Rect(0, 0, 320, 200)))
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestMultilingualEngine_NonLatinLanguages(t *testing.T) {
	fake := &fakeClient{fixedBoxes: []gosseract.BoundingBox{{Word: "세라마이드 모찌 토너 에센스", Confidence: 88}}}
	engine := newFakeEngine(t, KindMultilingual, Options{Languages: []string{"kor", "eng"}}, fake)

	text, err := engine.ExtractText(context.Background(), image.NewRGBA(image.Rect(0, 0, 320, 200)))
	require.NoError(t, err)
	assert.Equal(t, "세라마이드 모찌 토너 에센스", text)

	ok, _ := CheckText(text)
	assert.False(t, ok, "strict filter rejects non-ASCII text")
}

func TestCurvedEngine_JoinsBandsWithoutRepeats(t *testing.T) {
	fake := &fakeClient{fixedBoxes: []gosseract.BoundingBox{
		{Word: "Ceramide Mochi Toner", Confidence: 80},
		{Word: "Hydrating serum", Confidence: 75},
	}}
	engine := newFakeEngine(t, KindCurved, Options{MinConfidence: 0.3}, fake)

	text, err := engine.ExtractText(context.Background(), image.NewRGBA(image.Rect(0, 0, 400, 300)))
	require.NoError(t, err)
	assert.Equal(t, "Ceramide Mochi Toner\nHydrating serum", text)
	assert.Equal(t, curvedBands*len(DeskewAngles), fake.images)
	assert.Equal(t, fake.images, fake.closed)
}

func TestEngines_LayoutModeSetBeforeFirstRecognition(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	tests := []struct {
		kind Kind
		want gosseract.PageSegMode
	}{
		{KindMultilingual, gosseract.PSM_AUTO_OSD},
		{KindCurved, gosseract.PSM_SPARSE_TEXT},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			fake := &fakeClient{fixedBoxes: []gosseract.BoundingBox{{Word: "Ceramide Mochi Toner", Confidence: 90}}}
			engine := newFakeEngine(t, tt.kind, Options{}, fake)

			_, err := engine.ExtractText(context.Background(), img)
			require.NoError(t, err)
			require.NotEmpty(t, fake.modes)
			assert.Equal(t, tt.want, fake.modes[0], "first recognition runs with the engine's layout mode")
			assert.Equal(t, "set:tessedit_pageseg_mode", fake.calls[0])
			assert.Equal(t, "boxes", fake.calls[1])
		})
	}

	fake := &fakeClient{texts: map[gosseract.PageSegMode]string{gosseract.PSM_SINGLE_BLOCK: "Ceramide Mochi Toner"}}
	engine := newFakeEngine(t, KindTesseract, Options{}, fake)
	_, err := engine.ExtractText(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []string{"set:tessedit_pageseg_mode", "text"}, fake.calls)
}

func TestBands(t *testing.T) {
	short := image.NewGray(image.Rect(0, 0, 100, 100))
	assert.Len(t, bands(short), 1)

	tall := image.NewGray(image.Rect(0, 0, 100, 300))
	got := bands(tall)
	require.Len(t, got, curvedBands)
	assert.Equal(t, 0, got[0].Bounds().Min.Y)
	assert.Equal(t, 300, got[2].Bounds().Max.Y)
	// Neighbouring bands overlap.
	assert.Greater(t, got[0].Bounds().Max.Y, got[1].Bounds().Min.Y)
}

func TestDeskew_PositiveAngleRotatesClockwise(t *testing.T) {
	band := image.NewGray(image.Rect(0, 0, 100, 20))
	draw.Draw(band, band.Bounds(), image.White, image.Point{}, draw.Src)
	// Dark block in the top-right corner.
	draw.Draw(band, image.Rect(90, 0, 100, 6), image.Black, image.Point{}, draw.Src)

	out := deskew(band, 90)
	b := out.Bounds()
	require.InDelta(t, 20, b.Dx(), 2)
	require.InDelta(t, 100, b.Dy(), 2)
	assert.Equal(t, uint8(0), out.GrayAt(b.Min.X+17, b.Min.Y+95).Y, "top-right ends bottom-right")
	assert.Equal(t, uint8(0xFF), out.GrayAt(b.Min.X+2, b.Min.Y+4).Y, "top-left stays clear")
}

func TestDeskew_KeepsWhiteBackground(t *testing.T) {
	band := image.NewGray(image.Rect(0, 0, 200, 50))
	draw.Draw(band, band.Bounds(), image.White, image.Point{}, draw.Src)

	out := deskew(band, 8)
	assert.Greater(t, out.Bounds().Dy(), 50, "rotation grows the bounds")
	assert.Equal(t, uint8(0xFF), out.GrayAt(0, 0).Y, "corners are filled white")
}

func TestExtractFromBytes_DecodeFailure(t *testing.T) {
	engine := newFakeEngine(t, KindTesseract, Options{}, &fakeClient{})
	_, err := ExtractFromBytes(context.Background(), engine, []byte("nope"))
	assert.True(t, scanerr.Is(err, scanerr.CodeDecodeFailed))
}
