package main

import (
	"flag"
	"os"
	osuser "os/user"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/tw7649116/markov"
)

const (
	appName    = "markov"
	appVersion = "0.1"
)

var (
	props  = new(Properties)
	logDir *string
)

var (
	app         = kingpin.New(appName, "Hidden Markov model training command-line tool.")
	logToStderr = app.Flag("log-stderr", "Logs are written to standard error instead of files.").Default("true").Bool()
	vLevel      = app.Flag("log-level", "Enable V-leveled logging at the specified level.").Default("0").Short('v').String()

	train         = app.Command("train", "Re-estimate model parameters from the loaded observations.")
	trainModel    = train.Arg("model", "Model file (TOML).").Required().String()
	trainMethod   = train.Flag("method", "Training method.").Default("viterbi").Enum("viterbi", "baum-welch")
	trainMaxIter  = train.Flag("max-iter", "Maximum number of training iterations.").Default("100").Int()
	trainModelOut = train.Flag("model-out", "Write the trained model to this file.").String()
	trainPlot     = train.Flag("plot", "Write a log likelihood curve to this PNG file (baum-welch only).").String()

	print      = app.Command("print", "Dump the model parameters in readable form.")
	printModel = print.Arg("model", "Model file (TOML).").Required().String()

	graph      = app.Command("graph", "Export a window of the training graph in DOT format.")
	graphModel = graph.Arg("model", "Model file (TOML).").Required().String()
	graphTime  = graph.Flag("timepoint", "Center the window on this timepoint.").Default("0").Int()
	graphDepth = graph.Flag("depth", "Number of timepoints on each side of the center.").Default("2").Int()
	graphOut   = graph.Flag("out", "Write DOT output to this file instead of stdout.").String()
)

// Properties of the markov tool.
type Properties struct {
	Workspace string `toml:"workspace_dir"`
	LogDir    string `toml:"log_dir"`
}

func init() {
	currDir, e1 := os.Getwd()
	markov.Fatal(e1)
	propPath := currDir
	u, e2 := osuser.Current()
	if e2 == nil {
		propPath = filepath.Join(u.HomeDir, ".config", appName)
	}
	propPath = filepath.Join(propPath, "properties.toml")
	propEnvVar := os.Getenv("MARKOV_PROPERTIES")
	if len(propEnvVar) > 0 {
		propPath = propEnvVar
	}

	dat, e3 := os.ReadFile(propPath)
	if e3 == nil {
		_, e4 := toml.Decode(string(dat), props)
		markov.Fatal(e4)
	}
	defaultLogDir := filepath.Join(currDir, "log")
	if len(props.LogDir) > 0 {
		defaultLogDir = props.LogDir
	}
	logDir = app.Flag("log", "Log output dir.").Default(defaultLogDir).String()
}

func main() {
	app.Version(appVersion)
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	initGlog()
	defer glog.Flush()
	checkDir(props.Workspace)
	switch cmd {

	case train.FullCommand():
		glog.V(3).Info("start train command")
		doTrain()

	case print.FullCommand():
		glog.V(3).Info("start print command")
		doPrint()

	case graph.FullCommand():
		glog.V(3).Info("start graph command")
		doGraph()

	default:
		app.Usage(os.Args[1:])
	}
}

func doTrain() {

	m, e := markov.ReadModelFile(*trainModel)
	markov.Fatal(e)

	method, e := markov.ParseMethod(*trainMethod)
	markov.Fatal(e)

	result, e := markov.Train(m, markov.TrainConfig{
		Method:        method,
		MaxIterations: *trainMaxIter,
	})
	markov.Fatal(e)

	if !result.Converged {
		glog.Warningf("stopped after %d iterations without converging", result.Iterations)
	}
	if len(*trainPlot) > 0 {
		if method != markov.BaumWelch {
			glog.Warning("likelihood plot requires the baum-welch method, skipping")
		} else {
			markov.Fatal(saveLikelihoodPlot(*trainPlot, m.Name(), result.LogLike2))
		}
	}

	out := *trainModelOut
	if len(out) == 0 {
		out = *trainModel
	}
	markov.Fatal(markov.WriteModelFile(out, m))
	glog.Infof("wrote trained model to %s", out)
}

func doPrint() {

	m, e := markov.ReadModelFile(*printModel)
	markov.Fatal(e)
	markov.Fatal(m.Print(os.Stdout))
}

func doGraph() {

	m, e := markov.ReadModelFile(*graphModel)
	markov.Fatal(e)

	dat, e := m.DOTAtTimepoint(*graphTime, *graphDepth)
	markov.Fatal(e)

	if len(*graphOut) == 0 {
		os.Stdout.Write(dat)
		return
	}
	markov.Fatal(os.WriteFile(*graphOut, dat, 0644))
	glog.Infof("wrote DOT graph to %s", *graphOut)
}

// Creates dir if it doesn't exist.
func checkDir(path string) {

	if len(path) == 0 {
		return
	}
	e := os.MkdirAll(path, 0755)
	if e != nil {
		glog.Fatal(e)
	}
}

func initGlog() {

	checkDir(*logDir)
	if *logToStderr {
		flag.Set("alsologtostderr", "true")
	}
	flag.Set("v", *vLevel)
	flag.Set("log_dir", *logDir)
}
