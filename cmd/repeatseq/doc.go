/*
Given a coordinate-sorted BAM and a reference FASTA, repeatseq genotypes the
short tandem repeats listed in a region file, reporting the most likely
allele length(s) per locus along with a VCF of loci that differ from the
reference.

Sample usage:
repeatseq \
    --mode=2 \
    --out=output-prefix \
    my.bam \
    ref.fa \
    regions.txt
*/
package main
