package pricing

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

var fixtureFiles = map[string]string{
	FileProductClassPlant: "Item,Item Description,Item Category,Plant,Market Index Name\n" +
		"1001,Whole Milk Gal,Fluid,P1,CLASS I\n" +
		"1002,KS 2% Gal,Fluid,P1,CLASS I\n",
	FilePlantFees: "Plant,Market Index Name,Class I Location & Plant Fees ($/Gal)\n" +
		"P1,CLASS I,$0.10\n",
	FileMilkBaseCost: "Item, Base Milk Cost per Gallon ,Month\n" +
		"1001,$1.50,2025-12\n" +
		"1002,$1.40,2025-12\n",
	FileProcessing: "Item,Total Processing ($/Gal),Packaging ($/Gal),Ingredients ($/Gal)\n" +
		"1001,0.30,0.12,0.00\n" +
		"1002,0.28,0.12,0.01\n",
	FileSellToFees: "Sell-to Volume Bracket,Sell-to Volume Fee ($/Gal)\n" +
		"A,0.00\nB,0.05\nC,0.10\n",
	FileCustomLabelFees: "Custom Label Bracket (Gal/Yr),Custom Label Fee ($/Gal)\n" +
		"A,0.00\nB,0.02\nC,0.04\n",
	FilePalletFees: "Pallet,Mixed Pallet Fee ($/Gal)\n" +
		"Mixed,0.03\nFull,0\n",
	FileDeliveryFees: "Mileage Fee Tier (Mi),Drop Fee Tier (lbs/Drop Size), Delivery Charge ($/Gal) \n" +
		"51-100,0-500,0.25\n0-50,0-500,0.20\n",
	FileProductUOM: "Item,Gallons per Each,Gallons per Case\n" +
		"1001,1,4\n",
}

func writeFixture(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range fixtureFiles {
		if o, ok := overrides[name]; ok {
			content = o
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func derive(t *testing.T, dir string) *Result {
	t.Helper()
	in, err := LoadInputs(dir)
	require.NoError(t, err)
	res, err := Derive(context.Background(), in)
	require.NoError(t, err)
	return res
}

func TestDerive_CountsAndTierFilter(t *testing.T) {
	res := derive(t, writeFixture(t, nil))

	// 6 allowed sell/custom pairs x 2 pallets x 2 delivery tiers x 2 items
	assert.Len(t, res.Rows, 48)
	assert.Equal(t, 2, res.Stats.BaseRows)
	assert.Equal(t, 72, res.Stats.Combinations)
	assert.Equal(t, 24, res.Stats.TierFiltered)
	assert.Empty(t, res.Warnings)

	for _, r := range res.Rows {
		assert.True(t, Allows(r.SellToBracket, r.CustomLabelBracket),
			"sell %s custom %s", r.SellToBracket, r.CustomLabelBracket)
	}
}

func TestDerive_PriceArithmetic(t *testing.T) {
	res := derive(t, writeFixture(t, nil))

	for _, r := range res.Rows {
		var sum float32
		for _, c := range r.Components() {
			sum += c
		}
		assert.Equal(t, sum, r.FOB)
		assert.Equal(t, r.FOB+r.DeliveryCharge, r.Delivered)
		assert.Equal(t, float32(ShrinkRate*(float64(r.BaseMilkCost)+float64(r.ClassIFee))), r.Shrink)
	}

	first := res.Rows[0]
	assert.Equal(t, "1001", first.Item)
	assert.Equal(t, "A", first.SellToBracket.String())
	assert.Equal(t, "A", first.CustomLabelBracket.String())
	assert.Equal(t, "Full", first.Pallet)
	assert.Equal(t, "0-50", first.MileageTier)
	assert.Equal(t, "2025-12", first.Month)

	// 1.50 + 0.10 + 0.032 + 0.30 + 0.12
	assert.InDelta(t, 2.052, first.FOB, 1e-5)
	assert.InDelta(t, 2.252, first.Delivered, 1e-5)
	assert.Equal(t, float32(4), first.GallonsPerCase)
}

// randomFees writes a fixture whose fee tables are drawn from rng.
func randomFees(t *testing.T, rng *rand.Rand) (dir string, items, pairs, pallets, deliveries int, fees map[string]float32) {
	t.Helper()
	fees = make(map[string]float32)
	money := func(key string) string {
		v := float32(math.Round(rng.Float64()*2*10000) / 10000)
		fees[key] = v
		if rng.Intn(2) == 0 {
			return fmt.Sprintf("$%.4f", v)
		}
		return fmt.Sprintf("%.4f", v)
	}

	items = 1 + rng.Intn(4)
	var product, base, proc strings.Builder
	product.WriteString("Item,Item Description,Item Category,Plant,Market Index Name\n")
	base.WriteString("Item, Base Milk Cost per Gallon ,Month\n")
	proc.WriteString("Item,Total Processing ($/Gal),Packaging ($/Gal),Ingredients ($/Gal)\n")
	for i := 0; i < items; i++ {
		item := fmt.Sprintf("%d", 2000+i)
		fmt.Fprintf(&product, "%s,Item %d,Fluid,P1,CLASS I\n", item, i)
		fmt.Fprintf(&base, "%s,%s,2025-12\n", item, money("base "+item))
		fmt.Fprintf(&proc, "%s,%s,%s,%s\n", item, money("proc "+item), money("pack "+item), money("ing "+item))
	}

	labels := []string{"A", "B", "C", "D", "E"}
	if rng.Intn(2) == 0 {
		labels = []string{"1", "2", "3", "4", "5"}
	}
	brackets := labels[:2+rng.Intn(len(labels)-1)]
	var sell, custom strings.Builder
	sell.WriteString("Sell-to Volume Bracket,Sell-to Volume Fee ($/Gal)\n")
	custom.WriteString("Custom Label Bracket (Gal/Yr),Custom Label Fee ($/Gal)\n")
	for _, b := range brackets {
		fmt.Fprintf(&sell, "%s,%s\n", b, money("sell "+b))
		fmt.Fprintf(&custom, "%s,%s\n", b, money("custom "+b))
	}
	// custom >= sell over an ordered bracket list
	pairs = len(brackets) * (len(brackets) + 1) / 2

	pallets = 1 + rng.Intn(3)
	var pallet strings.Builder
	pallet.WriteString("Pallet,Mixed Pallet Fee ($/Gal)\n")
	for i := 0; i < pallets; i++ {
		name := fmt.Sprintf("Pallet %d", i)
		fmt.Fprintf(&pallet, "%s,%s\n", name, money("pallet "+name))
	}

	deliveries = 1 + rng.Intn(4)
	var delivery strings.Builder
	delivery.WriteString("Mileage Fee Tier (Mi),Drop Fee Tier (lbs/Drop Size), Delivery Charge ($/Gal) \n")
	for i := 0; i < deliveries; i++ {
		mileage, drop := fmt.Sprintf("%d-%d", i*50, i*50+49), "0-500"
		fmt.Fprintf(&delivery, "%s,%s,%s\n", mileage, drop, money("delivery "+mileage+"|"+drop))
	}

	dir = writeFixture(t, map[string]string{
		FileProductClassPlant: product.String(),
		FilePlantFees:         "Plant,Market Index Name,Class I Location & Plant Fees ($/Gal)\nP1,CLASS I," + money("plant") + "\n",
		FileMilkBaseCost:      base.String(),
		FileProcessing:        proc.String(),
		FileSellToFees:        sell.String(),
		FileCustomLabelFees:   custom.String(),
		FilePalletFees:        pallet.String(),
		FileDeliveryFees:      delivery.String(),
	})
	return dir, items, pairs, pallets, deliveries, fees
}

func TestDerive_PriceInvariantsOnGeneratedTables(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			dir, items, pairs, pallets, deliveries, fees := randomFees(t, rng)
			res := derive(t, dir)

			require.Len(t, res.Rows, items*pairs*pallets*deliveries)
			for _, r := range res.Rows {
				assert.True(t, Allows(r.SellToBracket, r.CustomLabelBracket))

				var sum float32
				for _, c := range r.Components() {
					sum += c
				}
				assert.Equal(t, sum, r.FOB)
				assert.Equal(t, r.FOB+r.DeliveryCharge, r.Delivered)
				assert.Equal(t, float32(ShrinkRate*(float64(r.BaseMilkCost)+float64(r.ClassIFee))), r.Shrink)

				assert.InDelta(t, fees["base "+r.Item], r.BaseMilkCost, 1e-6)
				assert.InDelta(t, fees["plant"], r.ClassIFee, 1e-6)
				assert.InDelta(t, fees["proc "+r.Item], r.Processing, 1e-6)
				assert.InDelta(t, fees["pack "+r.Item], r.Packaging, 1e-6)
				assert.InDelta(t, fees["ing "+r.Item], r.Ingredients, 1e-6)
				assert.InDelta(t, fees["sell "+r.SellToBracket.String()], r.SellToFee, 1e-6)
				assert.InDelta(t, fees["custom "+r.CustomLabelBracket.String()], r.CustomLabelFee, 1e-6)
				assert.InDelta(t, fees["pallet "+r.Pallet], r.PalletFee, 1e-6)
				assert.InDelta(t, fees["delivery "+r.MileageTier+"|"+r.DropTier], r.DeliveryCharge, 1e-6)
			}
		})
	}
}

func TestDerive_MissingUOMLeavesGallonsBlank(t *testing.T) {
	res := derive(t, writeFixture(t, nil))

	var found bool
	for _, r := range res.Rows {
		if r.Item == "1002" {
			found = true
			assert.True(t, math.IsNaN(float64(r.GallonsPerEach)))
		}
	}
	assert.True(t, found)
}

func TestDerive_IsDeterministic(t *testing.T) {
	dir := writeFixture(t, nil)

	var outputs [2]bytes.Buffer
	for i := range outputs {
		res := derive(t, dir)
		require.NoError(t, WriteComponentsCSV(&outputs[i], res.Rows))
	}
	assert.Equal(t, outputs[0].String(), outputs[1].String())

	header := strings.SplitN(outputs[0].String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(OutputColumns, ","), header)
}

func TestDerive_MissingCostColumnWarns(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		FileProcessing: "Item,Total Processing ($/Gal),Ingredients ($/Gal)\n1001,0.30,0.00\n1002,0.28,0.01\n",
	})
	res := derive(t, dir)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], ColPackaging)
	for _, r := range res.Rows {
		assert.Zero(t, r.Packaging)
	}
}

func TestDerive_DuplicateReferenceRowsCollapse(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		FilePalletFees: "Pallet,Mixed Pallet Fee ($/Gal)\nMixed,0.03\nFull,0\nMixed,0.09\n",
	})
	res := derive(t, dir)

	assert.Len(t, res.Rows, 48)
	assert.Equal(t, 24, res.Stats.Duplicates)
	for _, r := range res.Rows {
		if r.Pallet == "Mixed" {
			assert.Equal(t, float32(0.03), r.PalletFee, "first occurrence wins")
		}
	}
}

func TestLoadInputs_MissingFile(t *testing.T) {
	dir := writeFixture(t, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, FilePalletFees)))

	_, err := LoadInputs(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, refdata.ErrMissingInput)
	assert.Contains(t, err.Error(), FilePalletFees)
}

func TestComponentsFile_RoundTrip(t *testing.T) {
	res := derive(t, writeFixture(t, nil))
	p := filepath.Join(t.TempDir(), "out", ComponentsFile)
	require.NoError(t, WriteComponentsFile(p, res.Rows))

	rows, err := ReadComponentsFile(p)
	require.NoError(t, err)
	require.Len(t, rows, len(res.Rows))
	assert.Equal(t, res.Rows[5].FOB, rows[5].FOB)
	assert.Equal(t, res.Rows[5].SellToBracket.String(), rows[5].SellToBracket.String())
}
