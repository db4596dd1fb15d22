package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// PrintUsers outputs user info in the configured format.
func PrintUsers(users []schema.User, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, users)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeUsersCSV(w, users, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errUnsupportedParquet("users")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeUsersTable(w, users, cfg, duration)
		}, "Wrote table")
	}
}

func optionalRank(rank *int) string {
	if rank == nil {
		return ""
	}
	return strconv.Itoa(*rank)
}

func writeUsersCSV(w io.Writer, users []schema.User, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	header := []string{"user_id", "username", "country", "is_online", "is_supporter", "team", "stat_pp", "stat_global_rank", "stat_country_rank"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, u := range users {
			rec := []string{
				strconv.Itoa(u.ID),
				u.Username,
				u.CountryCode,
				strconv.FormatBool(u.IsOnline),
				strconv.FormatBool(u.IsSupporter),
				u.Team,
				fmtFloat(u.PP),
				optionalRank(u.GlobalRank),
				optionalRank(u.CountryRank),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeUsersTable(w io.Writer, users []schema.User, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Username", "Country", "Online", "Team", "PP", "Global", "Country Rank"})

	var data [][]string
	for _, u := range users {
		online := ""
		if u.IsOnline {
			online = "●"
		}
		global := contract.NoneValue
		if u.GlobalRank != nil {
			global = "#" + humanize.Comma(int64(*u.GlobalRank))
		}
		country := contract.NoneValue
		if u.CountryRank != nil {
			country = "#" + humanize.Comma(int64(*u.CountryRank))
		}
		data = append(data, []string{
			strconv.Itoa(u.ID),
			u.Username,
			u.CountryCode,
			online,
			u.Team,
			humanize.CommafWithDigits(u.PP, cfg.Precision),
			global,
			country,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d users. Fetched in %v\n", len(users), duration); err != nil {
		return err
	}
	return nil
}
