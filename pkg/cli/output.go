package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/model"
	"github.com/FNNDSC/covidnet-generate-dataset/pkg/domain/types"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
)

// DescriptorFileName is the file written by --savejson
const DescriptorFileName = "Covidnet_generate_dataset.json"

const title = `
 _____            _     _   _   _      _
/  __ \          (_)   | | | \ | |    | |
| /  \/ _____   ___  __| | |  \| | ___| |_
| |    / _ \ \ / / |/ _` + "`" + ` | | . ` + "`" + ` |/ _ \ __|
| \__/\ (_) \ V /| | (_| | | |\  |  __/ |_
 \____/\___/ \_/ |_|\__,_| \_| \_/\___|\__|

`

const manPage = `
    NAME

        covidnet_generate_dataset

    SYNOPSIS

        covidnet_generate_dataset                                   \
            [-h] [--help]                                           \
            [--json]                                                \
            [--man]                                                 \
            [--meta]                                                \
            [--savejson <DIR>]                                      \
            [-v <level>] [--verbosity <level>]                      \
            [--version]                                             \
            [--mode <MODE>]                                         \
            [--dataUrl <DATAURL>]                                   \
            <inputDir>                                              \
            <outputDir>

    BRIEF EXAMPLE

        * Bare bones execution

            mkdir in out && chmod 777 out
            covidnet_generate_dataset --mode covidx in out

    DESCRIPTION

        covidnet_generate_dataset downloads the source datasets listed on
        the data page into <inputDir>/data, extracts every .tar.gz archive
        in place and combines them into the COVIDx dataset in <outputDir>.

    ARGS

        [-h] [--help]
        If specified, show help message and exit.

        [--json]
        If specified, show json representation of app and exit.

        [--man]
        If specified, print (this) man page and exit.

        [--meta]
        If specified, print plugin meta data and exit.

        [--savejson <DIR>]
        If specified, save json representation file to DIR and exit.

        [-v <level>] [--verbosity <level>]
        Verbosity level for app. Not used currently.

        [--version]
        If specified, print version number and exit.

        [--mode <MODE>]
        Running mode. covidx is the only supported mode.

        [--dataUrl <DATAURL>]
        Listing page of the source datasets.
`

func printBanner(w io.Writer) {
	color.New(color.FgCyan).Fprint(w, title)
	fmt.Fprintf(w, "Version: %s\n", types.Version)
}

func printManPage(w io.Writer) {
	fmt.Fprint(w, manPage)
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, types.Version)
}

func marshalDescriptor(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal plugin descriptor")
	}
	return data, nil
}

func printDescriptor(w io.Writer, v any) error {
	data, err := marshalDescriptor(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return goerr.Wrap(err, "failed to write plugin descriptor")
	}
	return nil
}

func saveDescriptor(dir string, descriptor model.PluginDescriptor) (string, error) {
	data, err := marshalDescriptor(descriptor)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, DescriptorFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", goerr.Wrap(err, "failed to save plugin descriptor",
			goerr.V("path", path),
			goerr.T(types.ErrTagInvalidArgs))
	}
	return path, nil
}
