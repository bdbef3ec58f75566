package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/smkremaja/pkl/apps/shared"
	"github.com/smkremaja/pkl/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	readLineFunc     = readLine          // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	svcs   *shared.Services
	conf   *core.Config
	logger core.Logger
	out    io.Writer
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                              - run a migration command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  seed                                                - create the default accounts on an empty database")
	fmt.Fprintln(cli.out, "  adduser -role ROLE -username USERNAME -name NAME    - create an account, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME                    - reset a user's password")
	fmt.Fprintln(cli.out, "  import -role student|teacher -file FILE.xlsx        - create accounts from a spreadsheet")
	fmt.Fprintln(cli.out, "  export -list students|teachers|applications|guidance -out FILE.xlsx")
	fmt.Fprintln(cli.out, "  recap -kind attendances|reports|visits -range daily|weekly|monthly -date YYYY-MM-DD -out FILE.xlsx|FILE.pdf")
	fmt.Fprintln(cli.out, "  backup [-dir DIR]                                   - write a backup file")
	fmt.Fprintln(cli.out, "  restore -file FILE.json                             - restore a backup file")
	fmt.Fprintln(cli.out, "  wipe                                                - delete all data but the settings")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserRole := addUserCmd.String("role", "", "admin, teacher or student")
	addUserUname := addUserCmd.String("username", "", "The login name. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The full name")
	addUserClass := addUserCmd.String("class", "", "The student's class")
	addUserNISN := addUserCmd.String("nisn", "", "The student's NISN")
	addUserNIP := addUserCmd.String("nip", "", "The teacher's NIP")
	addUserSubject := addUserCmd.String("subject", "", "The teacher's subject")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importRole := importCmd.String("role", "", "student or teacher")
	importFile := importCmd.String("file", "", "The .xlsx roster")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportList := exportCmd.String("list", "", "students, teachers, applications or guidance")
	exportClass := exportCmd.String("class", "", "Only export this class (students and guidance)")
	exportOut := exportCmd.String("out", "", "The .xlsx file to write")

	recapCmd := flag.NewFlagSet("recap", flag.ExitOnError)
	recapKind := recapCmd.String("kind", "", "attendances, reports or visits")
	recapRange := recapCmd.String("range", "daily", "daily, weekly or monthly")
	recapDate := recapCmd.String("date", "", "A date of the period, today by default")
	recapClass := recapCmd.String("class", "", "Only recap this class")
	recapOut := recapCmd.String("out", "", "The .xlsx or .pdf file to write")

	backupCmd := flag.NewFlagSet("backup", flag.ExitOnError)
	backupDir := backupCmd.String("dir", "", "The directory to write to, BACKUP_DIR by default")

	restoreCmd := flag.NewFlagSet("restore", flag.ExitOnError)
	restoreFile := restoreCmd.String("file", "", "The backup file")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		return cli.seed()

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserRole == "" || *addUserUname == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(newUserArgs{
			role:     *addUserRole,
			username: *addUserUname,
			name:     *addUserName,
			class:    *addUserClass,
			nisn:     *addUserNISN,
			nip:      *addUserNIP,
			subject:  *addUserSubject,
		}, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importRole == "" || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importRoster(*importRole, *importFile)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportList == "" || *exportOut == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportList, *exportClass, *exportOut)

	case "recap":
		if err := recapCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *recapKind == "" || *recapOut == "" {
			recapCmd.Usage()
			return errHelp
		}
		return cli.recap(*recapKind, *recapRange, *recapDate, *recapClass, *recapOut)

	case "backup":
		if err := backupCmd.Parse(args[2:]); err != nil {
			return err
		}
		dir := *backupDir
		if dir == "" {
			dir = cli.conf.Backup.Dir
		}
		return cli.backup(dir)

	case "restore":
		if err := restoreCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *restoreFile == "" {
			restoreCmd.Usage()
			return errHelp
		}
		return cli.restore(*restoreFile)

	case "wipe":
		fmt.Fprintf(cli.out, "All data but the settings will be deleted. Type %s to confirm: ", cli.conf.WipeConfirmation)
		word, err := readLineFunc()
		if err != nil {
			return err
		}
		return cli.wipe(word)

	default:
		cli.printUsage()
		return errHelp
	}
}
