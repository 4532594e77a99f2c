package config

import "github.com/alecthomas/kong"

type Cli struct {
	Version kong.VersionFlag

	LogLevel   string `kong:"name=log-level,env=LOG_LEVEL,default=info,help='Set log level.'"`
	LogJSON    bool   `kong:"name=log-json,env=LOG_JSON,default=false,help='Enable JSON logging output.'"`
	LogCaller  bool   `kong:"name=log-caller,env=LOG_CALLER,default=false,help='Add file:line of the caller to log output.'"`
	LogNoColor bool   `kong:"name=log-nocolor,env=LOG_NOCOLOR,default=false,help='Disable colorized output.'"`

	Pack     PackCmd     `kong:"cmd,help='Pack a directory into an archive.'"`
	Unpack   UnpackCmd   `kong:"cmd,help='Extract an archive into a directory.'"`
	Checksum ChecksumCmd `kong:"cmd,help='Append or replace the checksum section of an existing archive.'"`
	Verify   VerifyCmd   `kong:"cmd,help='Recompute and compare the checksum section of an archive.'"`
	List     ListCmd     `kong:"cmd,help='List archive entries.'"`
}

type PackCmd struct {
	Compress     bool   `kong:"name=compress,short=c,env=OBB_COMPRESS,default=false,help='Compress every file (stored raw when compression does not help).'"`
	CompressList string `kong:"name=compress-list,type=path,env=OBB_COMPRESS_LIST,help='Compress only files and directories named in this list. (eg. compress.txt)'"`
	Checksum     bool   `kong:"name=checksum,env=OBB_CHECKSUM,default=false,help='Append checksum section after packing.'"`
	MaxSize      int64  `kong:"name=max-size,env=OBB_MAX_SIZE,default=0,help='Archive payload cap in bytes. 0 uses the default cap.'"`

	Source string `kong:"arg,required,name=source,type=path,help='Source directory. (eg. ./assets)'"`
	Output string `kong:"arg,optional,name=output,type=path,help='Output archive. Defaults to <source>.obb'"`
}

type UnpackCmd struct {
	Prefix string `kong:"name=prefix,env=OBB_PREFIX,help='Extract only entries under this archive path.'"`

	Archive string `kong:"arg,required,name=archive,type=existingfile,help='Archive to extract. (eg. main.obb)'"`
	Output  string `kong:"arg,optional,name=output,type=path,help='Output directory. Defaults to <archive dir>/<archive name>_extracted'"`
}

type ChecksumCmd struct {
	Archive string `kong:"arg,required,name=archive,type=existingfile,help='Archive to update in place.'"`
}

type VerifyCmd struct {
	Archive string `kong:"arg,required,name=archive,type=existingfile,help='Archive to verify.'"`
}

type ListCmd struct {
	Prefix string `kong:"name=prefix,env=OBB_PREFIX,help='List only entries under this archive path.'"`
	JSON   bool   `kong:"name=json,default=false,help='Print entries as JSON lines.'"`

	Archive string `kong:"arg,required,name=archive,type=existingfile,help='Archive to list.'"`
}
