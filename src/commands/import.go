package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rafaavmsilva/Menu/src/config"
	"github.com/rafaavmsilva/Menu/src/security/validation"
	"github.com/spf13/cobra"
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank statement synchronously and print the job result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, config.Cfg, args[0])
		},
	}
	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.AppConfig, source string) error {
	filename := filepath.Base(source)
	if err := validation.ValidateExtension(filename); err != nil {
		return err
	}

	staged, err := stageFile(source, cfg.UploadDir)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	job, importErr := a.uploads.Import(cmd.Context(), staged, filename)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(job); err != nil {
		return fmt.Errorf("printing job: %w", err)
	}
	if failed := a.cnpj.FailedCNPJs(); len(failed) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d CNPJs could not be resolved: %v\n", len(failed), failed)
	}
	return importErr
}

// stageFile copies source into the upload directory so the source file is never
// removed by a successful import.
func stageFile(source, uploadDir string) (string, error) {
	in, err := os.Open(source)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", source, err)
	}
	defer in.Close()

	if _, err := validation.ValidateFileContentByMagicBytes(in, source); err != nil {
		return "", err
	}

	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	dest := filepath.Join(uploadDir, uuid.NewString()+"_"+filepath.Base(source))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copying %s: %w", source, err)
	}
	return dest, out.Close()
}
