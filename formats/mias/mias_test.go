package mias

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/formats/tiff"
	"github.com/janelia-flyem/bioio/meta"
	"github.com/janelia-flyem/bioio/stream"
	"github.com/janelia-flyem/bioio/tests"
)

const results = "Operator:\tjdoe\n" +
	"Protocol:\tnuclei\n" +
	"**********\n" +
	"**********\n" +
	"Plate\tRow\tWell\tAreaCode\tCount\n" +
	"1\tA\t1\tA1\t15\n" +
	"1\tA\t2\tA16\t7\n"

// tile returns an 8-bit grayscale 2x2 TIFF whose pixels start at base.
func tile(software string, base byte) []byte {
	b := tests.NewTIFFBuilder(binary.LittleEndian, false)
	off := b.AddBlob([]byte{base, base + 1, base + 2, base + 3})
	b.AddDirectory(
		tests.Longs(tiff.TagImageWidth, 2),
		tests.Longs(tiff.TagImageLength, 2),
		tests.Shorts(tiff.TagBitsPerSample, 8),
		tests.Shorts(tiff.TagCompression, tiff.CompressionNone),
		tests.Shorts(tiff.TagPhotometric, tiff.PhotometricBlackIsZero),
		tests.Longs(tiff.TagStripOffsets, uint32(off)),
		tests.Shorts(tiff.TagRowsPerStrip, 2),
		tests.Longs(tiff.TagStripByteCounts, 4),
		tests.Text(tiff.TagSoftware, software),
	)
	data, _ := b.Bytes()
	return data
}

// overlay returns a 1-bit palette TIFF whose color map is pure red.
func overlay() []byte {
	b := tests.NewTIFFBuilder(binary.LittleEndian, false)
	off := b.AddBlob([]byte{0})
	b.AddDirectory(
		tests.Longs(tiff.TagImageWidth, 1),
		tests.Longs(tiff.TagImageLength, 1),
		tests.Shorts(tiff.TagBitsPerSample, 1),
		tests.Shorts(tiff.TagCompression, tiff.CompressionNone),
		tests.Shorts(tiff.TagPhotometric, tiff.PhotometricPalette),
		tests.Longs(tiff.TagStripOffsets, uint32(off)),
		tests.Longs(tiff.TagStripByteCounts, 1),
		tests.Text(tiff.TagSoftware, "eaZYX Analysis"),
		tests.Shorts(tiff.TagColorMap, 0xff00, 0xffff, 0, 0, 0, 0),
	)
	data, _ := b.Bytes()
	return data
}

func write(t *testing.T, path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

// pixel returns the first value of the tile at channel c, time t and column col.
func pixel(c, t, col int) byte {
	return byte(c*40 + t*20 + col*10)
}

// experimentTree writes two wells of 2 channels, 2 time points and a 1x2
// mosaic of 2x2 tiles.  The second well lacks one tile.  It returns the path
// of the first tile.
func experimentTree(t *testing.T) string {
	exp := filepath.Join(t.TempDir(), "screen")
	write(t, filepath.Join(exp, batchResults, "NEO_Results_1.txt"), []byte(results))
	plate := filepath.Join(exp, "plate1")
	write(t, filepath.Join(plate, plateResults, "Well0001_mode1_z001_t001_AllModesOverlay.tif"), overlay())
	write(t, filepath.Join(plate, plateResults, "state.sav"), []byte("state"))
	for _, wellName := range []string{"Well0001", "Well0002"} {
		for c := 0; c < 2; c++ {
			for tp := 0; tp < 2; tp++ {
				for col := 0; col < 2; col++ {
					if wellName == "Well0002" && c == 1 && tp == 1 && col == 1 {
						continue
					}
					name := (&well{tiled: true, first: position{1, 1, 1, 1, 1}}).fileName(c, 0, tp, 0, col)
					write(t, filepath.Join(plate, wellName, name), tile("eaZYX Imaging", pixel(c, tp, col)))
				}
			}
		}
	}
	return filepath.Join(plate, "Well0001", "mode1_z001_t001_im1_1.tif")
}

func TestParseTileName(t *testing.T) {
	p, tiled, ok := parseTileName("mode2_z003_t010_im1_4.tif")
	if !ok || !tiled || p != (position{2, 3, 10, 1, 4}) {
		t.Errorf("bad position %v tiled=%t ok=%t", p, tiled, ok)
	}
	p, tiled, ok = parseTileName("MODE1_Z001_T002.TIFF")
	if !ok || tiled || p != (position{1, 1, 2, 1, 1}) {
		t.Errorf("bad position %v tiled=%t ok=%t", p, tiled, ok)
	}
	if _, _, ok := parseTileName("overview.tif"); ok {
		t.Errorf("accepted a name without a position")
	}
}

func TestOpenExperiment(t *testing.T) {
	path := experimentTree(t)
	r := New()
	r.SetListing(format.NewListing(16))
	store := meta.NewRecorder()
	o := format.DefaultOptions()
	o.Store = store
	if err := r.SetOptions(o); err != nil {
		t.Fatal(err)
	}
	if err := r.Open(path); err != nil {
		t.Fatal(err)
	}
	defer r.Close(false)

	if r.SeriesCount() != 2 {
		t.Fatalf("expected 2 wells, got %d", r.SeriesCount())
	}
	d := r.Descriptor()
	if d.SizeX != 4 || d.SizeY != 2 || d.SizeC != 2 || d.SizeZ != 1 || d.SizeT != 2 || d.ImageCount != 4 {
		t.Fatalf("bad descriptor %s", d)
	}
	if d.DimensionOrder != bio.OrderXYTZC || d.PixelType != bio.Uint8 {
		t.Errorf("bad descriptor %+v", d)
	}

	no, err := format.PlaneIndex(r, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if no != 3 {
		t.Fatalf("expected plane 3 for c=1 t=1, got %d", no)
	}
	plane, err := format.ReadFullPlane(r, no)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{60, 61, 70, 71, 62, 63, 72, 73}
	if !bytes.Equal(plane, want) {
		t.Errorf("expected mosaic %v, got %v", want, plane)
	}
	region, err := r.ReadPlane(no, 1, 1, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(region, []byte{63, 72}) {
		t.Errorf("bad region across tiles %v", region)
	}

	global := r.GlobalMetadata()
	if global["Operator"] != "jdoe" || global["Plate 1, Well 2 Count"] != "7" || global["Experiment"] != "screen" {
		t.Errorf("bad global metadata %v", global)
	}
	if r.wellColumns != 16 {
		t.Errorf("expected 16 well columns from AreaCode, got %d", r.wellColumns)
	}
	if color := r.SeriesMetadata()["Channel 1 color"]; color != "R" {
		t.Errorf("expected red channel 1, got %v", color)
	}
	if name, _ := store.Get("ImageName", 1, -1); name != "Plate #0, Well A2" {
		t.Errorf("bad image name %v", name)
	}
	if col, _ := store.Get("WellColumn", 0, 1); col != int64(1) {
		t.Errorf("bad well column %v", col)
	}
	if s, _ := store.Get("WellSample0", 0, 1); s != int64(1) {
		t.Errorf("bad well sample %v", s)
	}

	if files := r.UsedFiles(false); len(files) != 17 {
		t.Errorf("expected 15 images and 2 analysis files, got %v", files)
	}
	analysis := r.UsedFiles(true)
	if len(analysis) != 2 || filepath.Base(analysis[0]) != "NEO_Results_1.txt" {
		t.Errorf("bad analysis files %v", analysis)
	}
	if err := r.SetSeries(1); err != nil {
		t.Fatal(err)
	}
	if files := r.SeriesUsedFiles(false); len(files) != 9 {
		t.Errorf("expected 7 images and 2 analysis files, got %v", files)
	}
}

func TestMissingTile(t *testing.T) {
	path := experimentTree(t)
	for _, policy := range []format.GroupPolicy{format.DegradeToBlank, format.FailOnMissing} {
		t.Run(policy.String(), func(t *testing.T) {
			r := New()
			r.SetListing(format.NewListing(16))
			r.SetGroupPolicy(policy)
			if err := r.Open(path); err != nil {
				t.Fatal(err)
			}
			defer r.Close(false)
			if err := r.SetSeries(1); err != nil {
				t.Fatal(err)
			}
			plane, err := format.ReadFullPlane(r, 3)
			if policy == format.FailOnMissing {
				if !bio.IsMissingFile(err) {
					t.Errorf("expected missing file error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if want := []byte{60, 61, 0, 0, 62, 63, 0, 0}; !bytes.Equal(plane, want) {
				t.Errorf("expected %v, got %v", want, plane)
			}

			// the policy survives duplication
			dup, err := r.Duplicate()
			if err != nil {
				t.Fatal(err)
			}
			defer dup.Close(false)
			if format.Unwrap(dup).(*Reader).GroupPolicy() != policy {
				t.Errorf("duplicate lost the group policy")
			}
		})
	}
}

func TestTileRemovedAfterOpen(t *testing.T) {
	for _, policy := range []format.GroupPolicy{format.DegradeToBlank, format.FailOnMissing} {
		t.Run(policy.String(), func(t *testing.T) {
			path := experimentTree(t)
			r := New()
			r.SetListing(format.NewListing(16))
			r.SetGroupPolicy(policy)
			if err := r.Open(path); err != nil {
				t.Fatal(err)
			}
			defer r.Close(false)

			gone := filepath.Join(filepath.Dir(path), "mode2_z001_t002_im1_2.tif")
			if err := os.Remove(gone); err != nil {
				t.Fatal(err)
			}
			// a second read goes through the refreshed listing
			for i := 0; i < 2; i++ {
				plane, err := format.ReadFullPlane(r, 3)
				if policy == format.FailOnMissing {
					if !bio.IsMissingFile(err) {
						t.Fatalf("read %d: expected missing file error, got %v", i, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("read %d: %v", i, err)
				}
				if want := []byte{60, 61, 0, 0, 62, 63, 0, 0}; !bytes.Equal(plane, want) {
					t.Errorf("read %d: expected %v, got %v", i, want, plane)
				}
			}
		})
	}
}

func TestDetection(t *testing.T) {
	path := experimentTree(t)
	r := New()
	if r.IsThisName(path, false) || r.IsThisName(path, true) {
		t.Errorf("suffix alone must not be sufficient")
	}
	src, err := stream.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	c := stream.NewCursor(src)
	defer c.Close()
	if !r.IsThisStream(c) || c.Offset() != 0 {
		t.Errorf("MIAS tile not recognized or cursor moved")
	}
	if r.FileGroupOption(path) != format.MustGroup {
		t.Errorf("expected must group")
	}

	registry := format.NewRegistry(Handler(), tiff.Handler())
	if h, ok := registry.Detect(path, true); !ok || h.Name != Name {
		t.Errorf("expected MIAS, got %v", h)
	}

	// other software in a well directory, and MIAS software outside one
	other := filepath.Join(filepath.Dir(path), "mode9_z001_t001.tif")
	write(t, other, tile("ImageJ", 0))
	loose := filepath.Join(t.TempDir(), "mode1_z001_t001.tif")
	write(t, loose, tile("eaZYX Imaging", 0))
	for _, name := range []string{other, loose} {
		if h, ok := registry.Detect(name, true); !ok || h.Name != tiff.Name {
			t.Errorf("expected TIFF for %s, got %v", name, h)
		}
	}
}

func TestBadLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "screen", "plate1", "Well0001")
	path := filepath.Join(dir, "notes.tif")
	write(t, path, tile("eaZYX Imaging", 0))
	if err := New().Open(path); !bio.IsDecode(err) {
		t.Errorf("expected decode error for a well without images, got %v", err)
	}
}
