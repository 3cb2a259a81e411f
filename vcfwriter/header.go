package vcfwriter

// Header is the VCFv4.1 header block spec.md §6 requires, written once at
// the start of the `.vcf` output file by cmd/repeatseq.
const Header = `##fileformat=VCFv4.1
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##FORMAT=<ID=GL,Number=G,Type=Float,Description="Genotype likelihood">
##INFO=<ID=AL,Number=A,Type=Integer,Description="Allele length offset from reference">
##INFO=<ID=DP,Number=1,Type=Integer,Description="Read depth">
##INFO=<ID=RU,Number=1,Type=String,Description="Repeat unit sequence">
##INFO=<ID=RL,Number=1,Type=Integer,Description="Reference repeat length">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	SAMPLE
`
