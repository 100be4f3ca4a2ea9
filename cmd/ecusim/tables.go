package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/table"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [name]",
	Short: "List the tables of a tune or print one of them.",
	Long: "`tables` lists every table of the tune with its shape. " +
		"`tables fuel.ve` prints one table, 3D maps as a heat map. " +
		"`tables --dump tune.yaml` writes the whole tune, defaults " +
		"included, as a starting point for a calibration.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(cmd)
		if err != nil {
			return err
		}

		tune, _, err := loadTune(cmd, env)
		if err != nil {
			return err
		}

		if dump, _ := cmd.Flags().GetString("dump"); dump != "" {
			return dumpTune(dump, tune)
		}

		if len(args) == 0 {
			pterm.DefaultTable.WithHasHeader().
				WithData(tableList(tune.Tables())).
				Render()
			return nil
		}

		for _, nt := range tune.Tables() {
			if nt.Name != args[0] {
				continue
			}

			plain, _ := cmd.Flags().GetBool("plain")
			return printTable(nt.Name, nt.Table, !plain)
		}

		return fmt.Errorf("no table named %q", args[0])
	},
}

func init() {
	tablesCmd.Flags().Bool("plain", false, "print 3D maps without colours")
	tablesCmd.Flags().String("dump", "", "write the tune as YAML to this file")
	rootCmd.AddCommand(tablesCmd)
}

func dumpTune(path string, tune *config.Tune) error {
	if err := config.Save(path, tune); err != nil {
		return err
	}

	pterm.Success.Printfln("tune written to %s", path)

	return nil
}

func tableList(tables []config.NamedTable) pterm.TableData {
	data := pterm.TableData{{"Name", "Kind", "Shape"}}

	for _, nt := range tables {
		switch t := nt.Table.(type) {
		case *table.Table2D:
			if t == nil {
				data = append(data, []string{nt.Name, "curve", "-"})
				continue
			}
			data = append(data, []string{nt.Name, "curve", fmt.Sprint(t.Len())})
		case *table.Table3D:
			if t == nil {
				data = append(data, []string{nt.Name, "map", "-"})
				continue
			}
			data = append(data, []string{
				nt.Name, "map", fmt.Sprintf("%dx%d", t.Rows(), t.Cols()),
			})
		default:
			data = append(data, []string{nt.Name, "-", "-"})
		}
	}

	return data
}

func printTable(name string, t config.Table, heat bool) error {
	pterm.DefaultSection.Println(name)

	switch t := t.(type) {
	case *table.Table2D:
		if t == nil {
			return fmt.Errorf("table %s is not set", name)
		}
		pterm.DefaultTable.WithHasHeader().WithData(curveData(t)).Render()
	case *table.Table3D:
		if t == nil {
			return fmt.Errorf("table %s is not set", name)
		}
		pterm.DefaultTable.WithHasHeader().WithData(mapData(t, heat)).Render()
		if heat {
			pterm.Println(heatLegend())
		}
	default:
		return fmt.Errorf("table %s has unknown type %T", name, t)
	}

	return nil
}

// curveData puts the axis in the header row and the values below it.
func curveData(t *table.Table2D) pterm.TableData {
	header := []string{"x"}
	values := []string{"y"}

	for i := 0; i < t.Len(); i++ {
		header = append(header, fmt.Sprint(t.Axis[i]))
		values = append(values, fmt.Sprint(t.Value(i)))
	}

	return pterm.TableData{header, values}
}

// mapData prints the highest Y bin first, the way a calibration tool shows a
// map.
func mapData(t *table.Table3D, heat bool) pterm.TableData {
	header := []string{"y \\ x"}
	for _, x := range t.XAxis {
		header = append(header, fmt.Sprint(x))
	}

	lo, hi := valueRange(t)
	data := pterm.TableData{header}

	for r := t.Rows() - 1; r >= 0; r-- {
		row := []string{fmt.Sprint(t.YAxis[r])}
		for c := 0; c < t.Cols(); c++ {
			v := t.Value(r, c)
			cell := fmt.Sprint(v)
			if heat {
				cell = heatStyle(normalize(v, lo, hi)).Sprint(cell)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return data
}

func valueRange(t *table.Table3D) (lo, hi int16) {
	lo, hi = t.Value(0, 0), t.Value(0, 0)

	for r := 0; r < t.Rows(); r++ {
		for c := 0; c < t.Cols(); c++ {
			lo = min(lo, t.Value(r, c))
			hi = max(hi, t.Value(r, c))
		}
	}

	return lo, hi
}

func normalize(v, lo, hi int16) float64 {
	if hi == lo {
		return 0
	}

	return (float64(v) - float64(lo)) / (float64(hi) - float64(lo))
}

func heatStyle(n float64) *pterm.Style {
	switch {
	case n < 0.2:
		return pterm.NewStyle(pterm.BgBlue, pterm.FgWhite)
	case n < 0.4:
		return pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)
	case n < 0.6:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgBlack)
	case n < 0.8:
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	default:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	}
}

func heatLegend() string {
	var b strings.Builder

	b.WriteString("Heat map: ")
	for _, l := range []struct {
		n    float64
		name string
	}{{0, "low"}, {0.5, "mid"}, {0.9, "high"}} {
		b.WriteString(heatStyle(l.n).Sprint("  ") + " " + l.name + "  ")
	}

	return b.String()
}
