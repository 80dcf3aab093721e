package version

// GitHash and BuildTime are stamped by the build using
//
//	go build -ldflags "-X github.com/TeamNorCal/ledaction/version.GitHash=`git rev-parse HEAD` -X github.com/TeamNorCal/ledaction/version.BuildTime=`date -u +%FT%TZ`"
var (
	BuildTime string
	GitHash   string
)
