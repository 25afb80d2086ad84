package hashcat

// Definition describes a hash pattern before compilation. Custom patterns
// loaded from a rules file use the same shape.
type Definition struct {
	Type   string `yaml:"type"`   // selector name, e.g. "md5"
	Label  string `yaml:"label"`  // bucket label, e.g. "[MD5]_[0]"
	Expr   string `yaml:"regex"`  // RE2 expression
	Length int    `yaml:"length"` // byte length the pattern is dispatched on
}

// builtins lists the built-in patterns grouped by length. Within a length,
// slice order is match order: the first matching pattern wins.
// Labels carry the hashcat mode number in the second bracket.
var builtins = []Definition{
	{Type: "half-md5-base64", Label: "[HALF_MD5_BASE64]_[5100_base64]", Expr: `(?i)^[-A-Za-z0-9+/]{11}=$`, Length: 12},
	{Type: "half-md5", Label: "[HALF_MD5]_[5100]", Expr: `(?i)^[a-f0-9]{16}$`, Length: 16},
	{Type: "md5-base64", Label: "[MD5_BASE64]_[0_base64]", Expr: `(?i)^[-A-Za-z0-9+/]{22}==$`, Length: 24},
	{Type: "sha1-base64", Label: "[SHA1_BASE64]_[100_base64]", Expr: `(?i)^[-A-Za-z0-9+/]{27}=$`, Length: 28},
	{Type: "md5", Label: "[MD5]_[0]", Expr: `(?i)^[a-f0-9]{32}$`, Length: 32},

	{Type: "phpass", Label: "[PHPASS]_[400]", Expr: `(?i)^\$[PH]\$[a-z0-9\\/.]{31}$`, Length: 34},
	{Type: "md5crypt", Label: "[MD5CRYPT]_[500]", Expr: `(?i)^\$1\$[a-z0-9/.]{0,8}\$[a-z0-9/.]{22}(:.*)?$`, Length: 34},

	{Type: "sha1", Label: "[SHA1]_[100]", Expr: `(?i)^[a-f0-9]{40}$`, Length: 40},
	{Type: "md5-rus", Label: "[MD5_RUs]_[20]", Expr: `(?i)[A-Za-z0-9._+-\\\(\)^|*&%$#!~{}]+[a-f0-9]{32}$`, Length: 40},
	{Type: "sha224-base64", Label: "[SHA224_BASE64]_[1300_base64]", Expr: `(?i)^[-A-Za-z0-9+/]{38}==$`, Length: 40},

	{Type: "mysql5", Label: "[MYSQL5]_[300]", Expr: `(?i)^\*[A-F0-9]{40}$`, Length: 41},
	{Type: "sha256-base64", Label: "[SHA256_BASE64]_[1400_base64]", Expr: `(?i)^[-A-Za-z0-9+/]{43}=$`, Length: 44},
	{Type: "django-sha1", Label: "[DJANGO_SHA1]_[124]", Expr: `(?i)^sha1\$[a-z0-9]+\$[a-f0-9]{40}$`, Length: 51},
	{Type: "drupal7", Label: "[DRUPAL7]_[7900]", Expr: `(?i)^\$S\$[a-z0-9/.]{52}$`, Length: 55},
	{Type: "sha224", Label: "[SHA224]_[1300]", Expr: `(?i)^[a-f0-9]{56}$`, Length: 56},
	{Type: "bcrypt", Label: "[BCRYPT]_[3200]", Expr: `(?i)^(\$2[axy]|\$2)\$[0-9]{2}\$[a-z0-9/.]{53}$`, Length: 60},

	{Type: "sha256", Label: "[SHA256]_[1400]", Expr: `(?i)^[a-f0-9]{64}$`, Length: 64},
	{Type: "sha384-base64", Label: "[SHA384_BASE64]_[10800_base64]", Expr: `(?i)^[-A-Za-z0-9+/]{64}$`, Length: 64},

	{Type: "django-sha256", Label: "[DJANGO_SHA256]_[10000]", Expr: `(?i)^pbkdf2_sha256\$[0-9]+\$[a-z0-9/.]+\$[a-z0-9/.]{43}=$`, Length: 77},
	{Type: "authme", Label: "[AUTHME]_[20711]", Expr: `(?i)^\$sha\$[a-z0-9]{1,16}\$([a-f0-9]{32}|[a-f0-9]{40}|[a-f0-9]{64}|[a-f0-9]{128}|[a-f0-9]{140})$`, Length: 86},
	{Type: "sha512-base64", Label: "[SHA512_BASE64]_[1700_base64]", Expr: `(?i)^[-A-Za-z0-9+/]{86}==$`, Length: 88},
	{Type: "sha384", Label: "[SHA384]_[10800]", Expr: `(?i)^[a-f0-9]{96}$`, Length: 96},
	{Type: "sha512crypt", Label: "[SHA512CRYPT]_[1800]", Expr: `(?i)^\$6\$(rounds=[0-9]+\$)?[a-z0-9/.]{0,16}\$[a-z0-9/.]{86}$`, Length: 98},
	{Type: "sha512", Label: "[SHA512]_[1700]", Expr: `(?i)^[a-f0-9]{128}$`, Length: 128},
	{Type: "blake2b-512", Label: "[BLAKE2b_512]_[600]", Expr: `\$BLAKE2\$[a-f0-9]{128}`, Length: 136},
}

// Builtins returns a copy of the built-in pattern definitions in match order.
func Builtins() []Definition {
	out := make([]Definition, len(builtins))
	copy(out, builtins)
	return out
}

// TypeNames returns the selector names of all built-in patterns.
func TypeNames() []string {
	names := make([]string, 0, len(builtins))
	for _, d := range builtins {
		names = append(names, d.Type)
	}
	return names
}
