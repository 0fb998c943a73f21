package tls

import (
	"bufio"
	"crypto/x509"
	"fmt"
	"io"
	"strings"

	"github.com/fzdarsky/ccclogin/internal/cli/clicontext"
)

// PromptAcceptCertificate shows cert on out and asks whether to trust it for
// host, reading the answer from in. A *bufio.Reader is used as is, so input
// already buffered by the caller is not lost. With --assumeyes the
// certificate is accepted without asking.
func PromptAcceptCertificate(in io.Reader, out io.Writer, host string, cert *x509.Certificate) bool {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "WARNING: Unknown TLS certificate\n")
	fmt.Fprintf(out, "  Server:      %s\n", host)
	fmt.Fprintf(out, "  Subject:     %s\n", cert.Subject)
	fmt.Fprintf(out, "  Issuer:      %s\n", cert.Issuer)
	fmt.Fprintf(out, "  Valid From:  %s\n", cert.NotBefore)
	fmt.Fprintf(out, "  Valid Until: %s\n", cert.NotAfter)
	fmt.Fprintf(out, "  Fingerprint: %s\n", ComputeFingerprint(cert))
	fmt.Fprintf(out, "\n")

	if clicontext.AssumeYes() {
		fmt.Fprintf(out, "Automatically accepting certificate (--assumeyes flag is set)\n")
		return true
	}

	return promptYesNo(in, out, "Do you want to trust this server?")
}

func promptYesNo(in io.Reader, out io.Writer, question string) bool {
	reader, ok := in.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(in)
	}

	for {
		fmt.Fprintf(out, "%s (yes/no): ", question)

		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return false
		}

		switch strings.ToLower(strings.TrimSpace(response)) {
		case "yes", "y":
			return true
		case "no", "n":
			return false
		default:
			if err != nil {
				return false
			}
			fmt.Fprintf(out, "Please answer 'yes' or 'no'\n")
		}
	}
}
