package cli

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/filex"
	"github.com/dmitrijs2005/recviewer/internal/models"
	"github.com/dmitrijs2005/recviewer/internal/netx"
)

type downloadedFile struct {
	Role models.Role `json:"role"`
	Path string      `json:"path"`
	Size int64       `json:"size"`
}

func newDownloadCommand(app *App) *cobra.Command {
	var (
		dir   string
		roles []string
	)
	cmd := &cobra.Command{
		Use:   "download <org> <device> <folder>",
		Short: "Save a session's files through their presigned URLs",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			want := make([]models.Role, 0, len(roles))
			for _, r := range roles {
				role := models.Role(r)
				if !role.IsMedia() && models.ValidateCaptionRole(role) != nil {
					return common.NewValidationError("role", fmt.Sprintf("unknown role %q", r))
				}
				want = append(want, role)
			}

			detail, err := app.client.GetSession(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}

			target, err := filex.EnsureSubDir(dir, detail.Session.FolderName)
			if err != nil {
				return err
			}

			var saved []downloadedFile
			for _, fe := range detail.Session.Files {
				if len(want) > 0 && !slices.Contains(want, fe.Role) {
					continue
				}
				url, ok := detail.URLs[fe.Role]
				if !ok {
					continue
				}
				p := filepath.Join(target, string(fe.Role)+path.Ext(fe.Key))
				n, err := saveTo(cmd, url, p)
				if err != nil {
					return fmt.Errorf("download %s: %w", fe.Role, err)
				}
				app.log.Debug(cmd.Context(), "downloaded", "role", fe.Role, "path", p, "bytes", n)
				saved = append(saved, downloadedFile{Role: fe.Role, Path: p, Size: n})
			}

			return app.emit(saved, func(w io.Writer) error {
				rows := make([][]string, 0, len(saved))
				for _, f := range saved {
					rows = append(rows, []string{string(f.Role), humanSize(f.Size), f.Path})
				}
				return table(w, []string{"ROLE", "SIZE", "PATH"}, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "parent directory for the session folder (default: current directory)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "only these roles (repeatable)")
	return cmd
}

// saveTo writes the object behind url to p, removing p when the transfer
// fails.
func saveTo(cmd *cobra.Command, url, p string) (int64, error) {
	f, err := os.Create(p)
	if err != nil {
		return 0, err
	}
	n, err := netx.DownloadPresignedURL(cmd.Context(), nil, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return 0, err
	}
	return n, nil
}
